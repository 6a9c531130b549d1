// internal/app/features/workspaces/routes.go
package workspaces

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the workspace endpoints.
// Mounted under /workspaces behind the signed-in middleware. The bank
// account and credit card routers nest under {workspaceID} so their
// handlers see the workspace URL param; they operate inside the active
// workspace, so they additionally sit behind the workspace guard.
func Routes(h *Handler, bankAccounts, creditCards chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Route("/{workspaceID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Patch("/", h.HandleRename)
		r.Delete("/", h.HandleDelete)
		r.Post("/select", h.HandleSelect)
		r.Delete("/leave", h.HandleLeave)
		r.Patch("/members/{userID}", h.HandleUpdateMemberRole)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
		r.Group(func(r chi.Router) {
			r.Use(h.Sessions.RequireWorkspace)
			r.Mount("/bank-accounts", bankAccounts)
			r.Mount("/credit-cards", creditCards)
		})
	})
	return r
}
