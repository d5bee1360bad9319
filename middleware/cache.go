package middleware

import (
	"bytes"
	"io"
	"net/http"

	"movie-search-platform/internal/logger"
	"movie-search-platform/internal/telemetry"
	"movie-search-platform/services"
	"movie-search-platform/utils"

	"github.com/gin-gonic/gin"
)

// CacheMiddleware implements a look-aside response cache. The key is derived
// from request path, query parameters, and body; on a hit the stored payload
// is returned verbatim without running the handler, on a miss the handler
// runs and a successful JSON response is stored before being returned.
// Cache store failures never fail the request.
func CacheMiddleware(cache *services.ResponseCache, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			utils.RespondWithBadRequest(c, "Unable to read request body", nil)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := services.BuildCacheKey(c.Request.URL.Path, c.Request.URL.Query(), body)
		c.Set("cache_key", key)

		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		cached, err := cache.Get(ctx, key)
		cancel()
		if err != nil {
			logger.Warn("cache lookup failed, computing response", "key", key, "error", err)
		}
		if cached != nil {
			metrics.RecordCache(c.Request.URL.Path, true)
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}
		metrics.RecordCache(c.Request.URL.Path, false)
		c.Header("X-Cache", "MISS")

		writer := &cachingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK && writer.body.Len() > 0 {
			ctx, cancel := utils.WithShortTimeout(c.Request.Context())
			defer cancel()
			if err := cache.Set(ctx, key, writer.body.Bytes()); err != nil {
				logger.Warn("cache store failed", "key", key, "error", err)
			}
		}
	}
}

// cachingWriter duplicates the response body so it can be stored after the
// handler finishes.
type cachingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cachingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
