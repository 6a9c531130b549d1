// internal/app/features/invites/handler.go
package invites

import (
	"encoding/json"
	"net/http"
	"strings"

	invitestore "github.com/dalemusser/fundio/internal/app/store/invites"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"github.com/dalemusser/fundio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves workspace invitations: creating them, listing the ones
// addressed to the signed-in user, and accepting or declining by token.
type Handler struct {
	Invites    *invitestore.Store
	Workspaces *workspacestore.Store
	Log        *zap.Logger
}

// NewHandler constructs an invites Handler.
func NewHandler(invites *invitestore.Store, workspaces *workspacestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Invites: invites, Workspaces: workspaces, Log: logger}
}

type createRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

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

// HandleCreate handles POST /invites. Only owners and admins of the target
// workspace may invite, and only to the ADMIN or MEMBER roles.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}
	wsID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed workspace id")
		return
	}

	var msgs []string
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		msgs = append(msgs, "a valid email is required")
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		msgs = append(msgs, "role must be ADMIN or MEMBER")
	}
	if len(msgs) > 0 {
		apiout.Errors(w, http.StatusBadRequest, msgs)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create invite")
	defer cancel()

	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	if err != nil {
		h.Log.Error("invite workspace lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ws.IsMember(uid) {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return
	}
	if !ws.CanManage(uid) {
		apiout.Error(w, http.StatusForbidden, "admin access required")
		return
	}
	for _, m := range ws.Members {
		if strings.EqualFold(m.Email, email) {
			apiout.Error(w, http.StatusConflict, "this user is already a member")
			return
		}
	}

	inv, err := h.Invites.Create(ctx, models.WorkspaceInvite{
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		Email:         email,
		Role:          req.Role,
		InvitedBy:     uid,
	})
	if err == invitestore.ErrDuplicatePending {
		apiout.Error(w, http.StatusConflict, "a pending invite for this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("create invite failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("invite created",
		zap.String("workspace_id", ws.ID.Hex()),
		zap.String("email", email),
		zap.String("role", req.Role))
	apiout.JSON(w, http.StatusCreated, inv)
}

// HandlePending handles GET /workspaces/invites/pending: the pending
// invites addressed to the signed-in user's email.
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	u, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list pending invites")
	defer cancel()

	invites, err := h.Invites.ListPendingForEmail(ctx, u.Email)
	if err != nil {
		h.Log.Error("list pending invites failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if invites == nil {
		invites = []models.WorkspaceInvite{}
	}
	apiout.JSON(w, http.StatusOK, invites)
}

// HandleAccept handles POST /workspaces/invites/accept. The invite must be
// pending and addressed to the signed-in user's email; on success the user
// joins the workspace with the invited role.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	u, uid, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	token, ok := h.readToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accept invite")
	defer cancel()

	inv, err := h.Invites.GetByToken(ctx, token)
	if err == invitestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "invite not found")
		return
	}
	if err != nil {
		h.Log.Error("invite lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !strings.EqualFold(inv.Email, u.Email) {
		// An invite is only actionable by its addressee.
		apiout.Error(w, http.StatusNotFound, "invite not found")
		return
	}
	if inv.Status != models.InviteStatusPending {
		apiout.Error(w, http.StatusConflict, "invite is no longer pending")
		return
	}

	// Membership first: a failure here leaves the invite pending so the
	// accept can be retried.
	member := models.Member{
		UserID: uid,
		Name:   u.Name,
		Email:  strings.ToLower(u.Email),
		Role:   inv.Role,
	}
	switch err := h.Workspaces.AddMember(ctx, inv.WorkspaceID, member); err {
	case nil:
	case workspacestore.ErrAlreadyMember:
		// Joining twice is harmless; the invite still gets resolved.
	case workspacestore.ErrNotFound:
		apiout.Error(w, http.StatusGone, "the workspace no longer exists")
		return
	default:
		h.Log.Error("add member failed", zap.Error(err),
			zap.String("workspace_id", inv.WorkspaceID.Hex()))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	inv, err = h.Invites.Resolve(ctx, token, models.InviteStatusAccepted)
	if err == invitestore.ErrNotPending {
		// A concurrent accept or decline resolved it first; the membership
		// write above is idempotent, so just report the conflict.
		apiout.Error(w, http.StatusConflict, "invite is no longer pending")
		return
	}
	if err != nil {
		h.Log.Error("resolve invite failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("invite accepted",
		zap.String("workspace_id", inv.WorkspaceID.Hex()),
		zap.String("user_id", uid.Hex()))
	apiout.JSON(w, http.StatusOK, inv)
}

// HandleDecline handles POST /workspaces/invites/decline.
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	u, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	token, ok := h.readToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "decline invite")
	defer cancel()

	inv, err := h.Invites.GetByToken(ctx, token)
	if err == invitestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "invite not found")
		return
	}
	if err != nil {
		h.Log.Error("invite lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !strings.EqualFold(inv.Email, u.Email) {
		apiout.Error(w, http.StatusNotFound, "invite not found")
		return
	}

	if _, err := h.Invites.Resolve(ctx, token, models.InviteStatusDeclined); err != nil {
		if err == invitestore.ErrNotPending {
			apiout.Error(w, http.StatusConflict, "invite is no longer pending")
			return
		}
		h.Log.Error("resolve invite failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.NoContent(w)
}

func (h *Handler) readToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		apiout.Error(w, http.StatusBadRequest, "token is required")
		return "", false
	}
	return strings.TrimSpace(req.Token), true
}
