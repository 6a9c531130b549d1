// internal/app/features/sessioninfo/handler.go
package sessioninfo

import (
	"net/http"

	"github.com/dalemusser/fundio/internal/app/system/apiout"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/domain/models"
	"go.uber.org/zap"
)

// Handler exposes the session snapshot to the web client and serves logout.
type Handler struct {
	Sessions *session.Manager
	Log      *zap.Logger
}

// NewHandler constructs a sessioninfo Handler.
func NewHandler(sessions *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Log: logger}
}

// snapshotResponse mirrors the shape the web client consumes.
type snapshotResponse struct {
	IsAuthenticated   bool            `json:"isAuthenticated"`
	IsInitialized     bool            `json:"isInitialized"`
	User              *session.User   `json:"user"`
	SelectedWorkspace *models.Summary `json:"selectedWorkspace"`
}

// ServeSession handles GET /session. It always answers 200; an anonymous
// session is a valid snapshot, not an error.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	st, ok := session.FromRequest(r)
	if !ok {
		apiout.JSON(w, http.StatusOK, snapshotResponse{})
		return
	}
	snap := st.Snapshot()
	apiout.JSON(w, http.StatusOK, snapshotResponse{
		IsAuthenticated:   snap.IsAuthenticated,
		IsInitialized:     snap.IsInitialized,
		User:              snap.User,
		SelectedWorkspace: snap.SelectedWorkspace,
	})
}

// ServeLogout handles GET /logout: both stores cleared, state reset, back
// to the login page.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Credentials.Remove(w)
	h.Sessions.Selection.Remove(w)
	if st, ok := session.FromRequest(r); ok {
		st.Logout()
	}
	h.Log.Info("user logged out")
	http.Redirect(w, r, h.Sessions.LoginPath, http.StatusSeeOther)
}
