package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLocalLimiters bounds the fallback limiter map; it is reset when full.
const maxLocalLimiters = 10000

// Counter is a shared fixed-window hit counter. cache.Client implements it.
type Counter interface {
	IsRateLimited(ctx context.Context, key string, max int, window time.Duration) (bool, error)
}

// RateLimiter limits requests per client IP using the shared counter, and
// falls back to per-process token buckets when the counter is unreachable.
type RateLimiter struct {
	counter Counter
	max     int
	window  time.Duration

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

func NewRateLimiter(counter Counter, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		max:     max,
		window:  window,
		local:   make(map[string]*rate.Limiter),
	}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	limited, err := l.counter.IsRateLimited(ctx, key, l.max, l.window)
	if err == nil {
		return !limited
	}
	slog.Warn("Rate limit counter unavailable, using local limiter", "error", err)
	return l.localLimiter(key).Allow()
}

func (l *RateLimiter) localLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.local[key]; ok {
		return lim
	}
	if len(l.local) >= maxLocalLimiters {
		l.local = make(map[string]*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Every(l.window/time.Duration(l.max)), l.max)
	l.local[key] = lim
	return lim
}

func (l *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(r.Context(), ip) {
			slog.Warn("Rate limit exceeded", "ip", ip)
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS allows browser calls from the configured origins. A "*" entry allows
// any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; !ok && !allowAll {
					if r.Method == http.MethodOptions {
						w.WriteHeader(http.StatusForbidden)
						return
					}
					writeError(w, http.StatusForbidden, "origin not allowed")
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
