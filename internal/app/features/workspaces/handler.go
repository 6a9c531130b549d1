// internal/app/features/workspaces/handler.go
package workspaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	accountstore "github.com/dalemusser/fundio/internal/app/store/accounts"
	cardstore "github.com/dalemusser/fundio/internal/app/store/cards"
	invitestore "github.com/dalemusser/fundio/internal/app/store/invites"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	minNameLen = 3
	maxNameLen = 100
)

// Handler serves the workspace CRUD, selection, and membership endpoints.
type Handler struct {
	Workspaces *workspacestore.Store
	Accounts   *accountstore.Store
	Cards      *cardstore.Store
	Invites    *invitestore.Store
	Sessions   *session.Manager
	Sanitize   *bluemonday.Policy
	Log        *zap.Logger
}

// NewHandler constructs a workspaces Handler.
func NewHandler(
	workspaces *workspacestore.Store,
	accounts *accountstore.Store,
	cards *cardstore.Store,
	invites *invitestore.Store,
	sessions *session.Manager,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Workspaces: workspaces,
		Accounts:   accounts,
		Cards:      cards,
		Invites:    invites,
		Sessions:   sessions,
		Sanitize:   bluemonday.StrictPolicy(),
		Log:        logger,
	}
}

// workspaceResponse is a workspace as the client sees it, including the
// requesting user's role.
type workspaceResponse struct {
	models.Workspace
	MyRole string `json:"myRole"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// currentUser returns the verified user, or writes a 401. Routes are
// guarded, so a miss here means a wiring bug and not a user error.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*sysauth.SessionUser, primitive.ObjectID, bool) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		apiout.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, primitive.NilObjectID, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiout.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, primitive.NilObjectID, false
	}
	return u, uid, true
}

// pathID parses the named chi URL parameter as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) cleanName(raw string) (string, bool) {
	name := strings.TrimSpace(h.Sanitize.Sanitize(raw))
	if len(name) < minNameLen || len(name) > maxNameLen {
		return "", false
	}
	return name, true
}

// HandleList handles GET /workspaces.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list workspaces")
	defer cancel()

	list, err := h.Workspaces.ListForUser(ctx, uid)
	if err != nil {
		h.Log.Error("list workspaces failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]workspaceResponse, 0, len(list))
	for _, ws := range list {
		out = append(out, workspaceResponse{Workspace: ws, MyRole: ws.MemberRole(uid)})
	}
	apiout.JSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /workspaces.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name, ok := h.cleanName(req.Name)
	if !ok {
		apiout.Errors(w, http.StatusBadRequest, []string{"name must be between 3 and 100 characters"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create workspace")
	defer cancel()

	owner := models.User{Name: u.Name, Email: u.Email}
	owner.ID, _ = primitive.ObjectIDFromHex(u.ID)

	ws, err := h.Workspaces.Create(ctx, name, owner)
	if err != nil {
		h.Log.Error("create workspace failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	// A freshly created workspace becomes the active one right away.
	sum := ws.Summarize()
	h.Sessions.Selection.Save(w, sum, u.ID)
	if st, ok := session.FromRequest(r); ok {
		st.SelectWorkspace(sum)
	}

	h.Log.Info("workspace created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("owner_id", u.ID))
	apiout.JSON(w, http.StatusCreated, workspaceResponse{Workspace: ws, MyRole: models.RoleOwner})
}

// HandleGet handles GET /workspaces/{workspaceID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get workspace")
	defer cancel()

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("get workspace failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	role := ws.MemberRole(uid)
	if role == "" {
		// Non-members learn nothing, not even existence.
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	apiout.JSON(w, http.StatusOK, workspaceResponse{Workspace: ws, MyRole: role})
}

// HandleRename handles PATCH /workspaces/{workspaceID}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	name, ok := h.cleanName(req.Name)
	if !ok {
		apiout.Errors(w, http.StatusBadRequest, []string{"name must be between 3 and 100 characters"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "rename workspace")
	defer cancel()

	ws, err := h.requireManage(ctx, w, wsID, uid)
	if err != nil {
		return
	}

	if err := h.Workspaces.Rename(ctx, ws.ID, name); err != nil {
		h.Log.Error("rename workspace failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.NoContent(w)
}

// HandleDelete handles DELETE /workspaces/{workspaceID}. Owner only;
// accounts, cards, and invites are cascaded, and a selection pointing at
// the deleted workspace is cleared.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete workspace")
	defer cancel()

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("delete workspace lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ws.OwnerID != uid {
		apiout.Error(w, http.StatusForbidden, "only the owner can delete a workspace")
		return
	}

	if err := h.Workspaces.Delete(ctx, wsID); err != nil {
		h.Log.Error("delete workspace failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Cascade failures are logged, not surfaced: the workspace is gone and
	// the orphans are unreachable behind workspace-scoped queries.
	if err := h.Accounts.DeleteForWorkspace(ctx, wsID); err != nil {
		h.Log.Warn("account cascade failed", zap.Error(err), zap.String("workspace_id", wsID.Hex()))
	}
	if err := h.Cards.DeleteForWorkspace(ctx, wsID); err != nil {
		h.Log.Warn("card cascade failed", zap.Error(err), zap.String("workspace_id", wsID.Hex()))
	}
	if err := h.Invites.DeleteForWorkspace(ctx, wsID); err != nil {
		h.Log.Warn("invite cascade failed", zap.Error(err), zap.String("workspace_id", wsID.Hex()))
	}

	h.clearSelectionIf(w, r, uid.Hex(), wsID.Hex())

	h.Log.Info("workspace deleted", zap.String("workspace_id", wsID.Hex()))
	apiout.NoContent(w)
}

// requireManage loads the workspace and checks the user can manage it.
// On failure the response is already written and a non-nil error returned.
func (h *Handler) requireManage(ctx context.Context, w http.ResponseWriter, wsID, uid primitive.ObjectID) (models.Workspace, error) {
	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return models.Workspace{}, err
	}
	if err != nil {
		h.Log.Error("workspace lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return models.Workspace{}, err
	}
	if !ws.IsMember(uid) {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return models.Workspace{}, workspacestore.ErrNotMember
	}
	if !ws.CanManage(uid) {
		apiout.Error(w, http.StatusForbidden, "admin access required")
		return models.Workspace{}, workspacestore.ErrNotMember
	}
	return ws, nil
}

// clearSelectionIf removes the stored selection when it points at wsID.
func (h *Handler) clearSelectionIf(w http.ResponseWriter, r *http.Request, userID, wsID string) {
	if sel, ok := h.Sessions.Selection.Get(w, r, userID); ok && sel.ID == wsID {
		h.Sessions.Selection.Remove(w)
		if st, ok := session.FromRequest(r); ok {
			snap := st.Snapshot()
			if snap.SelectedWorkspace != nil && snap.SelectedWorkspace.ID == wsID {
				st.ClearWorkspace()
			}
		}
	}
}
