// internal/app/features/cards/routes.go
package cards

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the credit card endpoints.
// Mounted at /workspaces/{workspaceID}/credit-cards.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{cardID}", h.HandleGet)
	r.Put("/{cardID}", h.HandleUpdate)
	r.Delete("/{cardID}", h.HandleDelete)
	return r
}
