// Package cache stores rendered pages for a short time so repeated visits to
// hot listings skip the database.
package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/KAsare1/Postly-server/service/metrics"
)

// DefaultTTL is how long a rendered page is served from the cache.
const DefaultTTL = 20 * time.Second

// PageCache is a keyed store of rendered page bodies with per-entry expiry.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Clear(ctx context.Context) error
}

// KeyFunc derives the cache key for a request.
type KeyFunc func(r *http.Request) string

// recorder buffers the whole response so nothing partial is ever cached.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (rec *recorder) Header() http.Header {
	return rec.header
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
}

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.body.Write(b)
}

// Middleware serves GET requests from c when possible and stores successful
// responses for ttl. Other methods pass straight through.
func Middleware(c PageCache, ttl time.Duration, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			k := key(r)
			if body, ok := c.Get(r.Context(), k); ok {
				metrics.CacheLookup(true)
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("X-Page-Cache", "hit")
				w.WriteHeader(http.StatusOK)
				if r.Method != http.MethodHead {
					w.Write(body)
				}
				return
			}
			metrics.CacheLookup(false)

			rec := &recorder{header: http.Header{}}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			if rec.status == http.StatusOK && r.Method == http.MethodGet {
				c.Set(r.Context(), k, bytes.Clone(rec.body.Bytes()), ttl)
			}

			for name, values := range rec.header {
				w.Header()[name] = values
			}
			w.Header().Set("X-Page-Cache", "miss")
			w.WriteHeader(rec.status)
			w.Write(rec.body.Bytes())
		})
	}
}
