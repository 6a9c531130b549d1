package session

import (
	"context"
	"net/http"

	"github.com/dalemusser/fundio/internal/app/system/credential"
	"github.com/dalemusser/fundio/internal/app/system/selection"
	"github.com/dalemusser/fundio/internal/app/system/token"
	"go.uber.org/zap"
)

// fallbackName is shown when a token carries no usable name claim.
const fallbackName = "Usuário"

// Manager reconciles the persisted stores into session state and exposes
// the route guards. One Manager serves the whole application.
type Manager struct {
	Credentials *credential.Store
	Selection   *selection.Store
	Log         *zap.Logger

	// Destinations the guards redirect to.
	LoginPath     string
	SelectionPath string
}

// NewManager creates a session manager with the default guard destinations.
func NewManager(creds *credential.Store, sel *selection.Store, logger *zap.Logger) *Manager {
	return &Manager{
		Credentials:   creds,
		Selection:     sel,
		Log:           logger,
		LoginPath:     "/auth/login",
		SelectionPath: "/workspace-selection",
	}
}

// Initialize runs the reconciliation once against st. Every failure inside
// is absorbed and reduced to the unauthenticated outcome; nothing escapes.
//
// The one-shot is enforced by the state's initialize slot: if another
// invocation already committed, this one backs off without side effects.
func (m *Manager) Initialize(w http.ResponseWriter, r *http.Request, st *State) {
	if st.Snapshot().IsInitialized {
		return
	}

	tok, ok := m.Credentials.Get(r)
	if !ok {
		// No session implies no valid workspace binding.
		m.Selection.Remove(w)
		st.Initialize(nil, nil)
		return
	}

	id, ok := token.Decode(tok)
	if !ok {
		m.Log.Debug("stored credential failed to decode, clearing session state")
		m.Credentials.Remove(w)
		m.Selection.Remove(w)
		st.Initialize(nil, nil)
		return
	}

	user := &User{
		ID:    id.SubjectID,
		Name:  id.FirstName,
		Email: id.Email,
	}
	if user.Name == "" {
		user.Name = fallbackName
	}

	if ws, ok := m.Selection.Get(w, r, id.SubjectID); ok {
		st.Initialize(user, &ws)
		return
	}
	st.Initialize(user, nil)
}

type ctxKey string

const stateKey ctxKey = "sessionState"

// Middleware builds and initializes a session state for each request and
// injects it into the request context for guards and handlers.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := NewState()
		m.Initialize(w, r, st)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), stateKey, st)))
	})
}

// FromRequest returns the session state injected by Middleware.
func FromRequest(r *http.Request) (*State, bool) {
	st, ok := r.Context().Value(stateKey).(*State)
	return st, ok
}

// WithTestState returns a request carrying the given state.
// Exported for use in handler tests only.
func WithTestState(r *http.Request, st *State) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), stateKey, st))
}
