// internal/app/features/banks/routes.go
package banks

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the banks directory.
// Mounted under /banks behind the signed-in middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Get("/options", h.HandleOptions)
	return r
}
