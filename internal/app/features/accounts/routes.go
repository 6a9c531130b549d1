// internal/app/features/accounts/routes.go
package accounts

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the bank account endpoints.
// Mounted at /workspaces/{workspaceID}/bank-accounts.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{accountID}", h.HandleGet)
	r.Put("/{accountID}", h.HandleUpdate)
	r.Delete("/{accountID}", h.HandleDelete)
	return r
}
