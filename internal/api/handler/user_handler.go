package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

const (
	resetDonePath     = "/auth/password_reset/done/"
	resetCompletePath = "/auth/reset/done/"
)

func (h *Handler) startSession(c *gin.Context, u *model.User) error {
	token, expires, err := h.accounts.IssueSession(u)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(c, token, expires, h.cookieSecure)
	return nil
}

// Signup 注册成功后直接登录并跳转首页
func (h *Handler) Signup(c *gin.Context) {
	f := form.NewSignupForm()
	if c.Request.Method == http.MethodPost && f.Bind(c) {
		u, err := h.accounts.Signup(c.Request.Context(), service.SignupInput{
			Username:  f.Username,
			Email:     f.Email,
			FirstName: f.FirstName,
			LastName:  f.LastName,
			Password:  f.Password1,
		})
		switch {
		case err == nil:
			if err := h.startSession(c, u); err != nil {
				h.fail(c, err)
				return
			}
			redirect(c, "/")
			return
		case errors.Is(err, service.ErrUsernameTaken):
			f.Errors.Add("username", "A user with that username already exists.")
		default:
			h.fail(c, err)
			return
		}
	}
	h.render(c, http.StatusOK, "users/signup.html", gin.H{"form": f})
}

// Login 支持 next 跳转，仅限站内路径
func (h *Handler) Login(c *gin.Context) {
	f := form.NewLoginForm(middleware.SafeNext(c.Query("next")))
	if c.Request.Method == http.MethodPost && f.Bind(c) {
		u, err := h.accounts.Authenticate(c.Request.Context(), f.Username, f.Password)
		switch {
		case err == nil:
			if err := h.startSession(c, u); err != nil {
				h.fail(c, err)
				return
			}
			next := middleware.SafeNext(f.Next)
			if next == "" {
				next = "/"
			}
			redirect(c, next)
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			f.InvalidLogin()
		default:
			h.fail(c, err)
			return
		}
	}
	h.render(c, http.StatusOK, "users/login.html", gin.H{"form": f})
}

// Logout 清除会话并渲染退出页
func (h *Handler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cookieSecure)
	// 本次渲染也按游客处理
	middleware.SetCurrentUser(c, nil)
	h.render(c, http.StatusOK, "users/logged_out.html", nil)
}

// PasswordReset 不论邮箱是否存在都跳到 done 页面
func (h *Handler) PasswordReset(c *gin.Context) {
	f := form.NewPasswordResetForm()
	if c.Request.Method == http.MethodPost && f.Bind(c) {
		if err := h.accounts.RequestPasswordReset(c.Request.Context(), f.Email); err != nil {
			h.fail(c, err)
			return
		}
		redirect(c, resetDonePath)
		return
	}
	h.render(c, http.StatusOK, "users/password_reset_form.html", gin.H{"form": f})
}

func (h *Handler) PasswordResetDone(c *gin.Context) {
	h.render(c, http.StatusOK, "users/password_reset_done.html", nil)
}

// PasswordResetConfirm 校验链接并设置新密码
func (h *Handler) PasswordResetConfirm(c *gin.Context) {
	token := c.Param("token")
	ctx := c.Request.Context()
	f := form.NewSetPasswordForm()

	_, err := h.accounts.CheckResetToken(ctx, token)
	if err != nil && !errors.Is(err, service.ErrInvalidToken) {
		h.fail(c, err)
		return
	}
	valid := err == nil

	if valid && c.Request.Method == http.MethodPost && f.Bind(c) {
		err := h.accounts.ResetPassword(ctx, token, f.NewPassword1)
		switch {
		case err == nil:
			redirect(c, resetCompletePath)
			return
		case errors.Is(err, service.ErrInvalidToken):
			valid = false
		default:
			h.fail(c, err)
			return
		}
	}
	h.render(c, http.StatusOK, "users/password_reset_confirm.html", gin.H{
		"form":      f,
		"token":     token,
		"validlink": valid,
	})
}

func (h *Handler) PasswordResetComplete(c *gin.Context) {
	h.render(c, http.StatusOK, "users/password_reset_complete.html", nil)
}
