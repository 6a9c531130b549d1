// internal/app/features/cards/handler.go
package cards

import (
	"encoding/json"
	"net/http"
	"strings"

	cardstore "github.com/dalemusser/fundio/internal/app/store/cards"
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

// Handler serves the credit card CRUD inside a workspace.
type Handler struct {
	Cards      *cardstore.Store
	Workspaces *workspacestore.Store
	Sanitize   *bluemonday.Policy
	Log        *zap.Logger
}

// NewHandler constructs a cards Handler.
func NewHandler(cards *cardstore.Store, workspaces *workspacestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Cards:      cards,
		Workspaces: workspaces,
		Sanitize:   bluemonday.StrictPolicy(),
		Log:        logger,
	}
}

type cardRequest struct {
	Name            string `json:"name"`
	CardType        string `json:"cardType"`
	Brand           string `json:"brand"`
	WorkspaceUserID string `json:"workspaceUserId"`
	HolderName      string `json:"holderName"`
	BankCode        string `json:"bankCode"`
	LastFourDigits  string `json:"lastFourDigits"`
	CreditLimit     string `json:"creditLimit"`
	DueDay          int    `json:"dueDate"`
}

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

func validBrand(b string) bool {
	for _, known := range models.CardBrands {
		if b == known {
			return true
		}
	}
	return false
}

// parse validates the request body into a CreditCard. HOLDER cards require
// a member, bank and limit; THIRD_PARTY cards require the holder's name and
// must not reference a member.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request, ws models.Workspace) (models.CreditCard, bool) {
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return models.CreditCard{}, false
	}

	var msgs []string
	cc := models.CreditCard{WorkspaceID: ws.ID, CardType: req.CardType}

	cc.Name = strings.TrimSpace(h.Sanitize.Sanitize(req.Name))
	if len(cc.Name) < minNameLen || len(cc.Name) > maxNameLen {
		msgs = append(msgs, "name must be between 3 and 100 characters")
	}
	if req.Brand != "" {
		if !validBrand(req.Brand) {
			msgs = append(msgs, "brand must be one of "+strings.Join(models.CardBrands, ", "))
		}
		cc.Brand = req.Brand
	}
	if !inputval.IsDueDay(req.DueDay) {
		msgs = append(msgs, "dueDate must be a day of month between 1 and 31")
	}
	cc.DueDay = req.DueDay

	if req.LastFourDigits != "" {
		if len(req.LastFourDigits) != 4 || !inputval.IsDigits(req.LastFourDigits) {
			msgs = append(msgs, "lastFourDigits must be exactly 4 digits")
		}
		cc.LastFourDigits = req.LastFourDigits
	}

	switch req.CardType {
	case models.CardTypeHolder:
		if req.HolderName != "" {
			msgs = append(msgs, "holderName must be empty for a HOLDER card")
		}
		oid, err := primitive.ObjectIDFromHex(req.WorkspaceUserID)
		if err != nil || !ws.IsMember(oid) {
			msgs = append(msgs, "workspaceUserId must identify a workspace member")
		} else {
			cc.WorkspaceUserID = &oid
		}
		if !inputval.IsBankCode(req.BankCode) {
			msgs = append(msgs, "bankCode must be a numeric bank code")
		}
		cc.BankCode = req.BankCode
		norm, ok := inputval.NormalizeDecimal(req.CreditLimit)
		if !ok {
			msgs = append(msgs, "creditLimit must be a decimal amount")
		}
		cc.CreditLimit = norm
	case models.CardTypeThirdParty:
		holder := strings.TrimSpace(h.Sanitize.Sanitize(req.HolderName))
		if holder == "" {
			msgs = append(msgs, "holderName is required for a THIRD_PARTY card")
		}
		cc.HolderName = holder
		if req.WorkspaceUserID != "" {
			msgs = append(msgs, "workspaceUserId must be empty for a THIRD_PARTY card")
		}
		if req.CreditLimit != "" {
			norm, ok := inputval.NormalizeDecimal(req.CreditLimit)
			if !ok {
				msgs = append(msgs, "creditLimit must be a decimal amount")
			}
			cc.CreditLimit = norm
		}
		if req.BankCode != "" {
			if !inputval.IsBankCode(req.BankCode) {
				msgs = append(msgs, "bankCode must be a numeric bank code")
			}
			cc.BankCode = req.BankCode
		}
	default:
		msgs = append(msgs, "cardType must be HOLDER or THIRD_PARTY")
	}

	if len(msgs) > 0 {
		apiout.Errors(w, http.StatusBadRequest, msgs)
		return models.CreditCard{}, false
	}
	return cc, true
}

// HandleList handles GET /workspaces/{workspaceID}/credit-cards.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list credit cards")
	defer cancel()

	list, err := h.Cards.ListForWorkspace(ctx, ws.ID)
	if err != nil {
		h.Log.Error("list credit cards failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.CreditCard{}
	}
	apiout.JSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /workspaces/{workspaceID}/credit-cards.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	cc, ok := h.parse(w, r, ws)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create credit card")
	defer cancel()

	created, err := h.Cards.Create(ctx, cc)
	if err != nil {
		h.Log.Error("create credit card failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.JSON(w, http.StatusCreated, created)
}

// HandleGet handles GET /workspaces/{workspaceID}/credit-cards/{cardID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "cardID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get credit card")
	defer cancel()

	cc, err := h.Cards.GetByID(ctx, ws.ID, id)
	if err == cardstore.ErrNotFound {
		apiout.Error(w, http.StatusNotFound, "credit card not found")
		return
	}
	if err != nil {
		h.Log.Error("get credit card failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	apiout.JSON(w, http.StatusOK, cc)
}

// HandleUpdate handles PUT /workspaces/{workspaceID}/credit-cards/{cardID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "cardID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}
	cc, ok := h.parse(w, r, ws)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update credit card")
	defer cancel()

	switch err := h.Cards.Update(ctx, ws.ID, id, cc); err {
	case nil:
		apiout.NoContent(w)
	case cardstore.ErrNotFound:
		apiout.Error(w, http.StatusNotFound, "credit card not found")
	default:
		h.Log.Error("update credit card failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// HandleDelete handles DELETE /workspaces/{workspaceID}/credit-cards/{cardID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.requireMember(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "cardID"))
	if err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete credit card")
	defer cancel()

	switch err := h.Cards.Delete(ctx, ws.ID, id); err {
	case nil:
		apiout.NoContent(w)
	case cardstore.ErrNotFound:
		apiout.Error(w, http.StatusNotFound, "credit card not found")
	default:
		h.Log.Error("delete credit card failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
	}
}
