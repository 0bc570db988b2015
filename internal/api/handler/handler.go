package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// HealthCheck 依赖探活
type HealthCheck func(ctx context.Context) error

// Deps 构造 Handler 所需依赖
type Deps struct {
	Posts        service.PostService
	Groups       service.GroupService
	Relations    service.RelationshipService
	Accounts     service.AccountService
	Media        *media.Storage
	CookieSecure bool
	Checks       map[string]HealthCheck
}

// Handler HTML 页面与 JSON API 共用
type Handler struct {
	postService  service.PostService
	groupService service.GroupService
	relService   service.RelationshipService
	accounts     service.AccountService
	media        *media.Storage
	cookieSecure bool
	checks       map[string]HealthCheck
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		postService:  d.Posts,
		groupService: d.Groups,
		relService:   d.Relations,
		accounts:     d.Accounts,
		media:        d.Media,
		cookieSecure: d.CookieSecure,
		checks:       d.Checks,
	}
}

// render 注入当前用户后渲染页面
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["viewer"] = middleware.CurrentUser(c)
	c.HTML(status, name, data)
}

// NotFound 自定义 404 页面
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "core/404.html", gin.H{"path": c.Request.URL.Path})
}

// ServerError 500 页面；也作为 panic 的兜底
func (h *Handler) ServerError(c *gin.Context) {
	h.render(c, http.StatusInternalServerError, "core/500.html", nil)
}

// Forbidden 跨站提交被拒
func (h *Handler) Forbidden(c *gin.Context) {
	h.render(c, http.StatusForbidden, "core/403csrf.html", nil)
}

func (h *Handler) TooManyRequests(c *gin.Context) {
	c.String(http.StatusTooManyRequests, "Too many requests")
}

// fail 按错误类型选择 404 或 500
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.ServerError(c)
}

// pathID 解析路径中的数字 id；非法时返回 false
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func profileURL(username string) string { return "/profile/" + url.PathEscape(username) + "/" }

func postURL(id uint) string { return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/" }
