// Package media stores uploaded post images on the local filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// UploadDir 帖子图片的子目录
	UploadDir = "posts"
	// MaxImageSize 单张图片上限
	MaxImageSize = 5 << 20
)

// imageTypes 只接受位图格式，svg 等可执行脚本的格式一律拒绝
var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp"}

var (
	ErrNotImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")
	ErrTooLarge = errors.New("image is too large")
)

type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

func (s *Storage) Root() string { return s.root }

// URL media 相对路径对应的访问地址
func (s *Storage) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return "/media/" + strings.TrimPrefix(rel, "/")
}

// Save 校验并落盘，返回相对 media root 的路径，如 posts/small.gif。
// 同名文件已存在时追加随机后缀。
func (s *Storage) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageSize {
		return "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	m := mimetype.Detect(data)
	if !mimetype.EqualsAny(m.String(), imageTypes...) {
		return "", ErrNotImage
	}
	// 扩展名以内容为准，不信任客户端文件名
	name := cleanName(fh.Filename)
	name = strings.TrimSuffix(name, path.Ext(name)) + m.Extension()
	return s.write(name, data)
}

// Delete 删除 Save 写入的文件，不存在时忽略
func (s *Storage) Delete(rel string) error {
	clean := path.Clean("/" + rel)
	if !strings.HasPrefix(clean, "/"+UploadDir+"/") {
		return fmt.Errorf("not a media upload: %q", rel)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func (s *Storage) write(name string, data []byte) (string, error) {
	dir := filepath.Join(s.root, UploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir media: %w", err)
	}

	candidate := name
	for i := 0; i < 5; i++ {
		out, err := os.OpenFile(filepath.Join(dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			ext := path.Ext(name)
			candidate = strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:7] + ext
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create media file: %w", err)
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			return "", fmt.Errorf("write media file: %w", err)
		}
		if err := out.Close(); err != nil {
			return "", fmt.Errorf("close media file: %w", err)
		}
		return path.Join(UploadDir, candidate), nil
	}
	return "", fmt.Errorf("no free name for %q", name)
}

// cleanName 去掉目录部分和不安全字符
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r >= 128:
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = uuid.NewString()[:8]
	}
	return out
}
