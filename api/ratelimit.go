package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rpupo63/blog-publisher-backend/errs"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter allows up to n requests per window for each client address.
// The bucket refills continuously at n per window.
type ipRateLimiter struct {
	scope     string
	n         int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	responder Responder
}

func newIPRateLimiter(scope string, n int, window time.Duration, responder Responder) *ipRateLimiter {
	if n <= 0 {
		n = 1
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &ipRateLimiter{
		scope:     scope,
		n:         n,
		window:    window,
		now:       time.Now,
		visitors:  make(map[string]*visitor),
		responder: responder,
	}
}

func (l *ipRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.window {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.window {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.n)), l.n)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			l.responder.WriteError(w, errs.NewRateLimitError(l.scope, l.window))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
