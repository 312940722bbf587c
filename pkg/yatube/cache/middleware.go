package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderCache reports whether a page came from the cache.
const HeaderCache = "X-Cache"

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type recorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// PageKey builds the cache key for a request URI and vary partition.
func PageKey(vary, requestURI string) string {
	return "page:" + vary + ":" + requestURI
}

// CachePage caches successful GET responses for ttl, keyed by the full
// request URI. vary, when set, partitions entries further (for example per viewer).
func CachePage(store Cache, ttl time.Duration, vary func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || ttl <= 0 {
			c.Next()
			return
		}

		partition := ""
		if vary != nil {
			partition = vary(c)
		}
		key := PageKey(partition, c.Request.URL.RequestURI())
		ctx := c.Request.Context()

		raw, err := store.Get(ctx, key)
		if err == nil {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				c.Header(HeaderCache, "HIT")
				c.Data(page.Status, page.ContentType, page.Body)
				c.Abort()
				return
			}
			slog.Warn("cache: dropping undecodable entry", "key", key)
		} else if !errors.Is(err, ErrMiss) {
			slog.Warn("cache: get failed", "key", key, "error", err)
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header(HeaderCache, "MISS")
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		raw, err = json.Marshal(cachedPage{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err != nil {
			slog.Warn("cache: encode failed", "key", key, "error", err)
			return
		}
		if err := store.Set(ctx, key, raw, ttl); err != nil {
			slog.Warn("cache: set failed", "key", key, "error", err)
		}
	}
}
