// internal/app/features/accounts/handler.go
package accounts

import (
	"encoding/json"
	"net/http"
	"strings"

	accountstore "github.com/dalemusser/fundio/internal/app/store/accounts"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/inputval"
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

// Handler serves the bank account CRUD inside a workspace. Every route is
// nested under /workspaces/{workspaceID}, and every operation re-checks
// that the caller is a member.
type Handler struct {
	Accounts   *accountstore.Store
	Workspaces *workspacestore.Store
	Sanitize   *bluemonday.Policy
	Log        *zap.Logger
}

// NewHandler constructs an accounts Handler.
func NewHandler(accounts *accountstore.Store, workspaces *workspacestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		Workspaces: workspaces,
		Sanitize:   bluemonday.StrictPolicy(),
		Log:        logger,
	}
}

type accountRequest struct {
	Name           string `json:"name"`
	BankCode       string `json:"bankCode"`
	OwnerID        string `json:"ownerId"`
	InitialBalance string `json:"initialBalance"`
	Agency         string `json:"agency"`
	Number         string `json:"account"`
}

// requireMember resolves the workspace from the URL and checks membership.
// On failure the response is written and ok is false.
func (h *Handler) requireMember(w http.ResponseWriter, r *http.Request) (models.Workspace, primitive.ObjectID, bool) {
	u, ok := sysauth.CurrentUser(r)
	if !ok {
		apiout.Error(w, http.StatusUnauthorized, "unauthorized")
		return models.Workspace{}, primitive.NilObjectID, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiout.Error(w, http.StatusUnauthorized, "unauthorized")
		return models.Workspace{}, primitive.NilObjectID, false
	}
	wsID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "workspaceID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return models.Workspace{}, primitive.NilObjectID, false
	}

	ws, err := h.Workspaces.GetByID(r.Context(), wsID)
	if err == workspacestore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return models.Workspace{}, primitive.NilObjectID, false
	}
	if err != nil {
		h.Log.Error("workspace lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return models.Workspace{}, primitive.NilObjectID, false
	}
	if !ws.IsMember(uid) {
		apiout.Error(w, http.StatusNotFound, "workspace not found")
		return models.Workspace{}, primitive.NilObjectID, false
	}
	return ws, uid, true
}

// parse validates the request body into a BankAccount. Monetary values are
// kept as normalized decimal strings.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request, ws models.Workspace) (models.BankAccount, bool) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return models.BankAccount{}, false
	}

	var msgs []string
	a := models.BankAccount{WorkspaceID: ws.ID}

	a.Name = strings.TrimSpace(h.Sanitize.Sanitize(req.Name))
	if len(a.Name) < minNameLen || len(a.Name) > maxNameLen {
		msgs = append(msgs, "name must be between 3 and 100 characters")
	}
	if !inputval.IsBankCode(req.BankCode) {
		msgs = append(msgs, "bankCode must be a numeric bank code")
	}
	a.BankCode = req.BankCode

	if req.OwnerID != "" {
		oid, err := primitive.ObjectIDFromHex(req.OwnerID)
		if err != nil || !ws.IsMember(oid) {
			msgs = append(msgs, "ownerId must identify a workspace member")
		} else {
			a.OwnerID = &oid
		}
	}
	if req.InitialBalance != "" {
		norm, ok := inputval.NormalizeDecimal(req.InitialBalance)
		if !ok {
			msgs = append(msgs, "initialBalance must be a decimal amount")
		}
		a.InitialBalance = norm
	}
	if req.Agency != "" {
		if !inputval.IsAccountNumber(req.Agency) {
			msgs = append(msgs, "agency must contain only digits and hyphens")
		}
		a.Agency = req.Agency
	}
	if req.Number != "" {
		if !inputval.IsAccountNumber(req.Number) {
			msgs = append(msgs, "account must contain only digits and hyphens")
		}
		a.Number = req.Number
	}

	if len(msgs) > 0 {
		apiout.Errors(w, http.StatusBadRequest, msgs)
		return models.BankAccount{}, false
	}
	return a, true
}

// HandleList handles GET /workspaces/{workspaceID}/bank-accounts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list bank accounts")
	defer cancel()

	list, err := h.Accounts.ListForWorkspace(ctx, ws.ID)
	if err != nil {
		h.Log.Error("list bank accounts failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.BankAccount{}
	}
	apiout.JSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /workspaces/{workspaceID}/bank-accounts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	a, ok := h.parse(w, r, ws)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create bank account")
	defer cancel()

	created, err := h.Accounts.Create(ctx, a)
	if err != nil {
		h.Log.Error("create bank account failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.JSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /workspaces/{workspaceID}/bank-accounts/{accountID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "accountID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get bank account")
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, ws.ID, id)
	if err == accountstore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "bank account not found")
		return
	}
	if err != nil {
		h.Log.Error("get bank account failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.JSON(w, http.StatusOK, a)
}

// HandleUpdate handles PUT /workspaces/{workspaceID}/bank-accounts/{accountID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "accountID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}
	a, ok := h.parse(w, r, ws)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update bank account")
	defer cancel()

	switch err := h.Accounts.Update(ctx, ws.ID, id, a); err {
	case nil:
		apiout.NoContent(w)
	case accountstore.ErrNotFound:
		apiout.Error(w, http.StatusNotFound, "bank account not found")
	default:
		h.Log.Error("update bank account failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// HandleDelete handles DELETE /workspaces/{workspaceID}/bank-accounts/{accountID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "accountID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete bank account")
	defer cancel()

	switch err := h.Accounts.Delete(ctx, ws.ID, id); err {
	case nil:
		apiout.NoContent(w)
	case accountstore.ErrNotFound:
		apiout.Error(w, http.StatusNotFound, "bank account not found")
	default:
		h.Log.Error("delete bank account failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}
