// internal/app/features/sessioninfo/routes.go
package sessioninfo

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the session endpoints.
// Mounted at the root: GET /session, GET /logout.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.ServeSession)
	r.Get("/logout", h.ServeLogout)
	return r
}
