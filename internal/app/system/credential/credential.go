// Package credential persists the bearer token as a cookie.
//
// The cookie is the single source of truth for "is a token stored"; presence
// does not imply the token is valid or unexpired. Decoding and verification
// live elsewhere (system/token, system/auth).
package credential

import (
	"net/http"
	"time"
)

const (
	// CookieName is the key under which the bearer token is stored.
	CookieName = "auth_token"

	// DefaultMaxAgeDays matches the token expiry issued at sign-in.
	DefaultMaxAgeDays = 7
)

// Store reads and writes the bearer-token cookie.
type Store struct {
	// MaxAgeDays is the cookie lifetime in days. Zero means DefaultMaxAgeDays.
	MaxAgeDays int
}

// Save persists the token scoped to the root path, SameSite=Strict, and
// Secure when the request arrived over TLS. Overwrites any previous value.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, token string) {
	days := s.MaxAgeDays
	if days <= 0 {
		days = DefaultMaxAgeDays
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((time.Duration(days) * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}

// Get returns the stored token. No validation is performed.
func (s *Store) Get(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Remove deletes the stored token.
func (s *Store) Remove(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// IsPresent reports whether a token is stored. It does not check expiry.
func (s *Store) IsPresent(r *http.Request) bool {
	_, ok := s.Get(r)
	return ok
}
