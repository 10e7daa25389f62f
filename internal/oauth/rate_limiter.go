package oauth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ipRateLimit is the sustained request rate allowed per client IP on
	// the OAuth endpoints.
	ipRateLimit = rate.Limit(10)

	// ipBurst is the burst size allowed per client IP.
	ipBurst = 20

	// limiterIdleEviction is how long an IP's limiter survives without
	// traffic before it is dropped.
	limiterIdleEviction = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter applies a per-IP token bucket to abuse-prone endpoints.
// Authorization and token exchange are the brute-force surface of the
// gateway, so they are limited independently of any authenticated quota.
type ipRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func newIPRateLimiter() *ipRateLimiter {
	return &ipRateLimiter{entries: make(map[string]*limiterEntry)}
}

// Allow reports whether a request from remoteAddr may proceed, evicting
// idle entries opportunistically.
func (l *ipRateLimiter) Allow(remoteAddr string) bool {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > limiterIdleEviction {
			delete(l.entries, key)
		}
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(ipRateLimit, ipBurst)}
		l.entries[ip] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

// limit wraps an http.HandlerFunc with the per-IP limiter.
func (l *ipRateLimiter) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.RemoteAddr) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
