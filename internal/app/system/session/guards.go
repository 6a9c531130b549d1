package session

import (
	"net/http"
	"net/url"
)

// Guards are pure functions of the session snapshot, applied as middleware
// on navigation routes:
//
//   - not yet initialized → answer "pending" (202), never redirect; the
//     caller keeps showing its loading state
//   - unauthenticated → redirect to the login destination with the original
//     request URI captured in a "return" parameter
//   - authenticated but no workspace (and none stored for this user) →
//     redirect to the workspace-selection destination
//   - otherwise → allow
//
// PublicOnly inverts the authenticated check for login/register pages.

// RequireAuth gates routes that need an authenticated session.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshot(r)
		if !ok || !snap.IsInitialized {
			writePending(w)
			return
		}
		if !snap.IsAuthenticated {
			m.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireWorkspace gates routes that need both authentication and an active
// workspace. A selection stored for this user counts even when the current
// snapshot has none; the handler restores it.
func (m *Manager) RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshot(r)
		if !ok || !snap.IsInitialized {
			writePending(w)
			return
		}
		if !snap.IsAuthenticated {
			m.redirectToLogin(w, r)
			return
		}
		if snap.SelectedWorkspace == nil && !m.Selection.HasSelection(w, r, snap.User.ID) {
			http.Redirect(w, r, m.SelectionPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PublicOnly keeps already-authenticated users out of public-only pages
// (login, register), sending them to the workspace-selection destination.
func (m *Manager) PublicOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshot(r)
		if !ok || !snap.IsInitialized {
			writePending(w)
			return
		}
		if snap.IsAuthenticated {
			http.Redirect(w, r, m.SelectionPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, m.LoginPath+"?return="+ret, http.StatusSeeOther)
}

func snapshot(r *http.Request) (Snapshot, bool) {
	st, ok := FromRequest(r)
	if !ok {
		return Snapshot{}, false
	}
	return st.Snapshot(), true
}

// writePending answers a request whose session is still indeterminate.
// Guards never infer authentication from a partially initialized state.
func writePending(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	http.Error(w, "session initializing", http.StatusAccepted)
}
