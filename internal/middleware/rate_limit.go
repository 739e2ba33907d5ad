package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimit 按客户端 IP 做固定窗口限流。IP 取自 RemoteAddr，
// 需要在其之前挂 chi 的 RealIP 中间件。
func RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	if maxRequests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := newWindowLimiter(maxRequests, window, time.Now)
	retryAfter := strconv.Itoa(int(window.Round(time.Second).Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				rateLimitedTotal.Inc()
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type windowLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	max     int
	window  time.Duration
	clients map[string]*counter
	sweepAt time.Time
}

type counter struct {
	count   int
	expires time.Time
}

func newWindowLimiter(limit int, w time.Duration, now func() time.Time) *windowLimiter {
	return &windowLimiter{
		now:     now,
		max:     limit,
		window:  w,
		clients: make(map[string]*counter),
		sweepAt: now().Add(w),
	}
}

func (l *windowLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// 每个窗口清理一次过期条目
	if now.After(l.sweepAt) {
		for k, c := range l.clients {
			if now.After(c.expires) {
				delete(l.clients, k)
			}
		}
		l.sweepAt = now.Add(l.window)
	}

	c, ok := l.clients[key]
	if !ok || now.After(c.expires) {
		l.clients[key] = &counter{count: 1, expires: now.Add(l.window)}
		return true
	}
	if c.count >= l.max {
		return false
	}
	c.count++
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
