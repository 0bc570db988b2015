package form

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SignupForm 注册
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" validate:"required,min=8,max=128"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
	Errors    Errors `form:"-" validate:"-"`
}

func NewSignupForm() *SignupForm { return &SignupForm{Errors: Errors{}} }

func (f *SignupForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Errors = check(f)
	if isNumeric(f.Password1) && !f.Errors.Has("password1") {
		f.Errors.Add("password2", "This password is entirely numeric.")
	}
	return f.Errors.Empty()
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LoginForm 登录；Next 为登录后跳转地址
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next" validate:"-"`
	Errors   Errors `form:"-" validate:"-"`
}

func NewLoginForm(next string) *LoginForm { return &LoginForm{Next: next, Errors: Errors{}} }

func (f *LoginForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.Username = strings.TrimSpace(f.Username)
	f.Errors = check(f)
	return f.Errors.Empty()
}

// InvalidLogin 用户名或密码错误
func (f *LoginForm) InvalidLogin() {
	f.Errors.Add(NonFieldErrors, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
}

type PasswordResetForm struct {
	Email  string `form:"email" validate:"required,email,max=254"`
	Errors Errors `form:"-" validate:"-"`
}

func NewPasswordResetForm() *PasswordResetForm { return &PasswordResetForm{Errors: Errors{}} }

func (f *PasswordResetForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.Email = strings.TrimSpace(f.Email)
	f.Errors = check(f)
	return f.Errors.Empty()
}

type SetPasswordForm struct {
	NewPassword1 string `form:"new_password1" validate:"required,min=8,max=128"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
	Errors       Errors `form:"-" validate:"-"`
}

func NewSetPasswordForm() *SetPasswordForm { return &SetPasswordForm{Errors: Errors{}} }

func (f *SetPasswordForm) Bind(c *gin.Context) bool {
	if err := c.ShouldBind(f); err != nil {
		f.Errors = Errors{}
		f.Errors.Add(NonFieldErrors, err.Error())
		return false
	}
	f.Errors = check(f)
	return f.Errors.Empty()
}
