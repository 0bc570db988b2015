package web

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// MediaURL 上传文件的访问前缀
const MediaURL = "/media/"

var months = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatDate 形如 "2 января 2024"
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// LineBreaks 转义后把换行替换为 <br>
func LineBreaks(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

func mediaURL(rel string) string {
	if rel == "" {
		return ""
	}
	return MediaURL + strings.TrimPrefix(rel, "/")
}

// dict 给 include 模板传多个参数
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict expects key/value pairs")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func funcMap(name string) template.FuncMap {
	return template.FuncMap{
		"templateName": func() string { return name },
		"date":         FormatDate,
		"linebreaksbr": LineBreaks,
		"media":        mediaURL,
		"dict":         dict,
		"year":         func() int { return time.Now().Year() },
	}
}
