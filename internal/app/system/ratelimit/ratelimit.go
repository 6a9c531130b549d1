// Package ratelimit throttles repeated requests with a sliding window
// counter. It backs the sign-in brute-force protection.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key inside a fixed-duration window.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	cleanup  time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter that allows limit requests per duration per key.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a request for key fits in the current window and
// records it when it does.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Reset clears the counter for key. Called after a successful sign-in so a
// legitimate user is not penalized for earlier typos.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client address, preferring the proxy headers set by
// the load balancer over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SignInLimiter throttles sign-in attempts on two axes: per source IP to
// slow distributed guessing, and per email to protect a targeted account.
type SignInLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewSignInLimiter creates a limiter with the production defaults:
// 10 attempts per IP per minute, 5 attempts per email per 5 minutes.
func NewSignInLimiter() *SignInLimiter {
	return &SignInLimiter{
		ip:    New(10, time.Minute),
		email: New(5, 5*time.Minute),
	}
}

// Check reports whether the attempt is allowed. A false result comes with a
// user-facing reason.
func (sl *SignInLimiter) Check(r *http.Request, email string) (bool, string) {
	if !sl.ip.Allow(ClientIP(r)) {
		return false, "too many sign-in attempts; wait a minute and try again"
	}
	if email != "" {
		if !sl.email.Allow(strings.ToLower(strings.TrimSpace(email))) {
			return false, "too many sign-in attempts for this account; wait a few minutes"
		}
	}
	return true, ""
}

// ResetEmail clears the per-account counter after a successful sign-in.
func (sl *SignInLimiter) ResetEmail(email string) {
	if email != "" {
		sl.email.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
