package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/avelez/gym-class-scheduler/internal/config"
)

// cachedResponse is the Redis envelope for one cached reply: enough to
// replay the status, headers and body exactly as the handler produced them.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// teeWriter forwards writes to the client while keeping a bounded copy for
// the cache.  oversize flips once the body passes the limit so a truncated
// response is never stored.
type teeWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	oversize bool
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if !w.oversize {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.oversize = true
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKey builds the Redis key for a request.  The variable part is hashed
// so query strings of any length land in fixed-size keys under the
// configured prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var tail string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		tail = c.Path()
	case "method_route":
		tail = r.Method + " " + c.Path()
	case "method_route_query":
		tail = r.Method + " " + c.Path() + "?" + r.URL.RawQuery
	default: // route_query
		tail = c.Path() + "?" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s:%x", cfg.Prefix, sha1.Sum([]byte(tail)))
}

// NewRedisCache caches whole responses from the public schedule-browse
// endpoints.  A hit replays the stored status, headers and body from Redis
// without touching the database; only 200 responses within the size limit
// are stored.  X-Cache reports HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg, c)

			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					return replay(c, cached)
				}
			}

			w := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = w
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if w.status != http.StatusOK || w.oversize {
				return nil
			}

			entry := cachedResponse{Status: w.status, Header: cloneHeader(c.Response().Header()), Body: w.buf.Bytes()}
			if raw, err := json.Marshal(entry); err == nil {
				// The request context may be done once the body is out, so
				// the store uses its own.
				_ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
			}
			return nil
		}
	}
}

// replay writes a cached response back to the client.  Content-Length is
// left for echo to recompute.
func replay(c echo.Context, cached cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cached.Header {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cached.Status)
	if len(cached.Body) > 0 {
		_, _ = c.Response().Write(cached.Body)
	}
	return nil
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}
