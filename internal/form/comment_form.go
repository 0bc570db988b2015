package form

import (
	"strings"

	"github.com/gin-gonic/gin"
)

type CommentForm struct {
	Text   string `form:"text" validate:"required"`
	Errors Errors `form:"-" validate:"-"`
}

func NewCommentForm() *CommentForm { return &CommentForm{Errors: Errors{}} }

func (f *CommentForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.Text = strings.TrimSpace(f.Text)
	f.Errors = check(f)
	return f.Errors.Empty()
}
