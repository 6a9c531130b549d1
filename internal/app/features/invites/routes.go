// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the invite endpoints.
// Mounted under /invites behind the signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	r.Get("/pending", h.HandlePending)
	r.Post("/accept", h.HandleAccept)
	r.Post("/decline", h.HandleDecline)
	return r
}
