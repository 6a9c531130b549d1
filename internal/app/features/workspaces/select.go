// internal/app/features/workspaces/select.go
package workspaces

import (
	"net/http"

	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleSelect handles POST /workspaces/{workspaceID}/select. The selection
// is persisted tagged with the selecting user so that another account on
// the same browser never inherits it.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "select workspace")
	defer cancel()

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("select workspace lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ws.IsMember(uid) {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}

	sum := ws.Summarize()
	h.Sessions.Selection.Save(w, sum, uid.Hex())
	if st, ok := session.FromRequest(r); ok {
		st.SelectWorkspace(sum)
	}

	h.Log.Info("workspace selected",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("user_id", uid.Hex()))
	apiout.JSON(w, http.StatusOK, sum)
}
