package form

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/model"
)

const invalidChoice = "Select a valid choice. That choice is not one of the available choices."

// PostForm 发帖 / 编辑帖子
type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,number"`

	Image   *multipart.FileHeader `form:"-" validate:"-"`
	Choices []*model.Group        `form:"-" validate:"-"`
	Errors  Errors                `form:"-" validate:"-"`
}

func NewPostForm(groups []*model.Group) *PostForm {
	return &PostForm{Choices: groups, Errors: Errors{}}
}

// PostFormFor 以已有帖子为初始值
func PostFormFor(p *model.Post, groups []*model.Group) *PostForm {
	f := NewPostForm(groups)
	f.Text = p.Text
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	return f
}

// Bind 读取请求并校验，返回是否合法
func (f *PostForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	f.Errors = check(f)

	if f.Group != "" && !f.Errors.Has("group") && f.GroupID() == nil {
		f.Errors.Add("group", invalidChoice)
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f.Image = fh
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		f.Errors.Add("image", "The submitted data was not a file.")
	}
	return f.Errors.Empty()
}

// GroupID 返回选中的分组；未选或不在候选项中时为 nil
func (f *PostForm) GroupID() *uint {
	if f.Group == "" {
		return nil
	}
	id, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil {
		return nil
	}
	for _, g := range f.Choices {
		if uint64(g.ID) == id {
			gid := g.ID
			return &gid
		}
	}
	return nil
}

func (f *PostForm) Selected(id uint) bool {
	return f.Group == strconv.FormatUint(uint64(id), 10)
}
