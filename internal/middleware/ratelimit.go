package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimit bounds requests per client inside a fixed window. Submissions are
// the expensive path; this keeps one client from monopolizing the worker
// pool with uploads. The router installs chi's RealIP ahead of this, so
// RemoteAddr already reflects any forwarding headers and is the only source
// of the client key here.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	l := &ipLimiter{limit: limit, per: per, windows: make(map[string]*window)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r), time.Now()) {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type window struct {
	count  int
	resets time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	limit   int
	per     time.Duration
	windows map[string]*window
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	wnd, ok := l.windows[ip]
	if !ok || now.After(wnd.resets) {
		wnd = &window{resets: now.Add(l.per)}
		l.windows[ip] = wnd
	}
	if wnd.count >= l.limit {
		return false
	}
	wnd.count++
	return true
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
