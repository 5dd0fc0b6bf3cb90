package utils

import (
	"fmt"
	"net"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxLimiters bounds how many actors are tracked at once; the least recently
// seen are forgotten first.
const maxLimiters = 10000

// RateLimiter throttles state-changing requests per signed-in user, or per
// client address for anonymous visitors. Reads are never throttled.
type RateLimiter struct {
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
	log      logrus.FieldLogger
}

// NewRateLimiter returns nil when perSecond is not positive, which disables
// limiting.
func NewRateLimiter(perSecond float64, burst int, log logrus.FieldLogger) (*RateLimiter, error) {
	if perSecond <= 0 {
		return nil, nil
	}
	if burst < 1 {
		burst = 1
	}
	cache, err := lru.New[string, *rate.Limiter](maxLimiters)
	if err != nil {
		return nil, fmt.Errorf("create limiter cache: %w", err)
	}
	return &RateLimiter{
		limiters: cache,
		rate:     rate.Limit(perSecond),
		burst:    burst,
		log:      log,
	}, nil
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

func clientKey(r *http.Request) string {
	if u := ActorFrom(r.Context()); u != nil {
		return fmt.Sprintf("user:%d", u.ID)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		key := clientKey(r)
		if !rl.limiter(key).Allow() {
			rl.log.WithFields(logrus.Fields{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
