// internal/app/features/banks/handler.go
package banks

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fundio/internal/app/system/apiout"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the banks directory to the web client.
type Handler struct {
	Banks *Client
	Log   *zap.Logger
}

// NewHandler constructs a banks Handler.
func NewHandler(client *Client, logger *zap.Logger) *Handler {
	return &Handler{Banks: client, Log: logger}
}

// HandleList handles GET /banks: the raw directory.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Banks.List(r.Context())
	if err != nil {
		h.Log.Error("banks directory unavailable", zap.Error(err))
		apiout.Error(w, http.StatusBadGateway, "banks directory unavailable")
		return
	}
	apiout.JSON(w, http.StatusOK, banks)
}

// HandleOptions handles GET /banks/options?q=: picker entries, optionally
// filtered by a case-insensitive substring of code or name.
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	banks, err := h.Banks.List(r.Context())
	if err != nil {
		h.Log.Error("banks directory unavailable", zap.Error(err))
		apiout.Error(w, http.StatusBadGateway, "banks directory unavailable")
		return
	}

	opts := Options(banks)
	if q := strings.ToLower(strings.TrimSpace(query.Get(r, "q"))); q != "" {
		filtered := opts[:0]
		for _, o := range opts {
			if strings.Contains(strings.ToLower(o.Label), q) {
				filtered = append(filtered, o)
			}
		}
		opts = filtered
	}
	apiout.JSON(w, http.StatusOK, opts)
}
