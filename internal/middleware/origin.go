package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// SameOrigin 拒绝来源站点与 Host 不一致的写请求。
// 没有 Origin 和 Referer 的请求（命令行客户端、测试）放行。
func SameOrigin(onReject gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		src := c.GetHeader("Origin")
		if src == "" || src == "null" {
			src = c.GetHeader("Referer")
		}
		if src == "" || sameHost(src, c.Request.Host) {
			c.Next()
			return
		}
		if onReject != nil {
			onReject(c)
		} else {
			c.AbortWithStatus(http.StatusForbidden)
		}
		c.Abort()
	}
}

func sameHost(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
