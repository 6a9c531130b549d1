// internal/app/features/auth/routes.go
package auth

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the auth endpoints.
// Mounted under /auth. Both endpoints are public-only: an already
// authenticated session is sent on to workspace selection instead.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.Sessions.PublicOnly)
	r.Post("/sign-in", h.HandleSignIn)
	r.Post("/sign-up", h.HandleSignUp)
	return r
}
