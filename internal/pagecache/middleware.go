package pagecache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// ViewerFunc 返回区分缓存的访问者标识
type ViewerFunc func(c *gin.Context) string

// Anonymous viewer id for guests.
const Anonymous = "anon"

type bodyWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware 缓存 GET 的 200 响应，命中后原样回放，直到过期或被 Clear。
func Middleware(store *Store, prefix string, ttl time.Duration, viewer ViewerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			c.Next()
			return
		}

		who := Anonymous
		if viewer != nil {
			who = viewer(c)
		}
		key := Key(prefix, who, c.Request.URL.RequestURI())
		ctx := c.Request.Context()

		entry, ok, err := store.Get(ctx, key)
		if err != nil {
			logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.Header("X-Cache", "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		}

		if method == http.MethodHead {
			c.Next()
			return
		}

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()
		c.Writer = w.ResponseWriter

		if w.Status() != http.StatusOK || w.Header().Get("Set-Cookie") != "" || len(c.Errors) > 0 {
			return
		}
		e := &Entry{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		}
		if err := store.Set(ctx, key, e, ttl); err != nil {
			logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
}
