// internal/app/features/workspaces/members.go
package workspaces

import (
	"encoding/json"
	"net/http"

	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"github.com/dalemusser/fundio/internal/domain/models"
	"go.uber.org/zap"
)

type roleRequest struct {
	Role string `json:"role"`
}

// HandleUpdateMemberRole handles PATCH /workspaces/{workspaceID}/members/{userID}.
func (h *Handler) HandleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		apiout.Errors(w, http.StatusBadRequest, []string{"role must be ADMIN or MEMBER"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update member role")
	defer cancel()

	if _, err := h.requireManage(ctx, w, wsID, uid); err != nil {
		return
	}

	switch err := h.Workspaces.UpdateMemberRole(ctx, wsID, memberID, req.Role); err {
	case nil:
		apiout.NoContent(w)
	case workspacestore.ErrOwnerImmovable:
		apiout.Error(w, http.StatusForbidden, "the owner's role cannot be changed")
	case workspacestore.ErrNotMember:
		apiout.Error(w, http.StatusNotFound, "member not found")
	default:
		h.Log.Error("update member role failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// HandleRemoveMember handles DELETE /workspaces/{workspaceID}/members/{userID}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	if _, err := h.requireManage(ctx, w, wsID, uid); err != nil {
		return
	}

	switch err := h.Workspaces.RemoveMember(ctx, wsID, memberID); err {
	case nil:
		apiout.NoContent(w)
	case workspacestore.ErrOwnerImmovable:
		apiout.Error(w, http.StatusForbidden, "the owner cannot be removed")
	case workspacestore.ErrNotMember:
		apiout.Error(w, http.StatusNotFound, "member not found")
	default:
		h.Log.Error("remove member failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// HandleLeave handles DELETE /workspaces/{workspaceID}/leave. Any member
// except the owner may leave; the stored selection is cleared when it
// pointed at the workspace being left.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "leave workspace")
	defer cancel()

	switch err := h.Workspaces.RemoveMember(ctx, wsID, uid); err {
	case nil:
		h.clearSelectionIf(w, r, uid.Hex(), wsID.Hex())
		apiout.NoContent(w)
	case workspacestore.ErrOwnerImmovable:
		apiout.Error(w, http.StatusForbidden, "the owner cannot leave; delete the workspace instead")
	case workspacestore.ErrNotMember, workspacestore.ErrNotFound:
		apiout.Error(w, http.StatusNotFound, "workspace not found")
	default:
		h.Log.Error("leave workspace failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}
