package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// Recovery 捕获 panic 上报 sentry，并交给 fallback 渲染 500 页面。
// 正常返回的 5xx 且带有 c.Errors 时也会上报。
func Recovery(fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			hub.RecoverWithContext(c.Request.Context(), rec)
			logger.Error("panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("panic", fmt.Sprint(rec)),
				zap.Stack("stack"),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if fallback == nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			fallback(c)
			c.Abort()
		}()

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError && len(c.Errors) > 0 {
			hub.CaptureException(c.Errors.Last().Err)
		}
	}
}
