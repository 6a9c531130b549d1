// Package auth verifies bearer tokens on API routes and injects the
// verified user into the request context.
//
// This is the strict counterpart to system/token's lenient Decode: API
// routes always check the signature and expiry, so a forged cookie can
// decorate the navigation shell but never reach data.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/fundio/internal/app/system/apiout"
	"github.com/dalemusser/fundio/internal/app/system/credential"
	"github.com/dalemusser/fundio/internal/app/system/token"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrNoToken      = errors.New("no bearer token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// SessionUser is the verified identity injected into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// Manager verifies tokens and gates API routes.
type Manager struct {
	Secret      []byte
	Expiry      time.Duration
	Credentials *credential.Store
	Log         *zap.Logger
}

// NewManager creates a token manager. expiryDays also sets the credential
// cookie lifetime so the two expire together.
func NewManager(secret []byte, expiryDays int, logger *zap.Logger) *Manager {
	return &Manager{
		Secret:      secret,
		Expiry:      time.Duration(expiryDays) * 24 * time.Hour,
		Credentials: &credential.Store{MaxAgeDays: expiryDays},
		Log:         logger,
	}
}

// Issue signs a token for u with this manager's secret and expiry.
func (m *Manager) Issue(u models.User) (string, error) {
	return token.Issue(u, m.Secret, m.Expiry)
}

// Verify parses and validates tok, returning the verified identity.
func (m *Manager) Verify(tok string) (*SessionUser, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	return &SessionUser{ID: sub, Name: name, Email: email}, nil
}

// tokenFromRequest looks in the Authorization header first, then the
// credential cookie. The SPA sends the header; plain browser navigation
// only has the cookie.
func (m *Manager) tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(h, prefix) {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(strings.TrimPrefix(h, prefix)), nil
	}
	if tok, ok := m.Credentials.Get(r); ok {
		return tok, nil
	}
	return "", ErrNoToken
}

// RequireSignedIn verifies the request's token and injects the user.
// Failures answer 401 with the API error envelope.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := m.tokenFromRequest(r)
		if err != nil {
			apiout.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		u, err := m.Verify(tok)
		if err != nil {
			m.Log.Debug("token verification failed", zap.Error(err))
			apiout.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// CurrentUser returns the verified user injected by RequireSignedIn.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser returns a request carrying u as the verified user.
// Exported for use in handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}
