// internal/app/features/auth/handler.go
package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	"github.com/dalemusser/fundio/internal/app/system/apiout"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/authutil"
	"github.com/dalemusser/fundio/internal/app/system/inputval"
	"github.com/dalemusser/fundio/internal/app/system/ratelimit"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	minNameLen = 3
	maxNameLen = 100
)

// Handler serves the email/password sign-in and sign-up endpoints.
type Handler struct {
	Users    *userstore.Store
	Tokens   *sysauth.Manager
	Sessions *session.Manager
	Sanitize *bluemonday.Policy
	Limiter  *ratelimit.SignInLimiter
	Log      *zap.Logger
}

// NewHandler constructs an auth Handler.
func NewHandler(users *userstore.Store, tokens *sysauth.Manager, sessions *session.Manager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Tokens:   tokens,
		Sessions: sessions,
		Sanitize: bluemonday.StrictPolicy(),
		Limiter:  ratelimit.NewSignInLimiter(),
		Log:      logger,
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleSignIn handles POST /auth/sign-in.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	var msgs []string
	if strings.TrimSpace(req.Email) == "" {
		msgs = append(msgs, "email is required")
	}
	if req.Password == "" {
		msgs = append(msgs, "password is required")
	}
	if len(msgs) > 0 {
		apiout.Errors(w, http.StatusBadRequest, msgs)
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		h.Log.Warn("sign in throttled", zap.String("ip", ratelimit.ClientIP(r)))
		apiout.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sign in lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == userstore.ErrNotFound {
		apiout.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.Log.Error("sign in lookup failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	// OAuth-only accounts have no password to check.
	if u.PasswordHash == "" || !authutil.CheckPassword(req.Password, u.PasswordHash) {
		apiout.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.Limiter.ResetEmail(req.Email)
	h.establishSession(w, r, u, http.StatusOK)
}

// HandleSignUp handles POST /auth/sign-up.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiout.Error(w, http.StatusBadRequest, "malformed request body")
		return
	}

	name := strings.TrimSpace(h.Sanitize.Sanitize(req.Name))
	var msgs []string
	if len(name) < minNameLen || len(name) > maxNameLen {
		msgs = append(msgs, "name must be between 3 and 100 characters")
	}
	if !inputval.IsValidEmail(req.Email) {
		msgs = append(msgs, "email must be a valid address")
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		msgs = append(msgs, err.Error())
	}
	if len(msgs) > 0 {
		apiout.Errors(w, http.StatusBadRequest, msgs)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "sign up create")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		AuthProvider: models.AuthProviderLocal,
	})
	if err == userstore.ErrDuplicateEmail {
		apiout.Error(w, http.StatusConflict, "an account with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("sign up create failed", zap.Error(err))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()))
	h.establishSession(w, r, u, http.StatusCreated)
}

// establishSession issues the token, persists the credential, updates the
// per-request session state, and writes the token response.
//
// Login clears any selected workspace; the user's own saved selection (if
// any) is restored right after, so account switches never leak a workspace
// across users while a same-user re-login keeps its context.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	tok, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		apiout.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Tokens.Credentials.Save(w, r, tok)

	if st, ok := session.FromRequest(r); ok {
		st.Login(session.User{ID: u.ID.Hex(), Name: u.FirstName(), Email: u.Email})
		if ws, ok := h.Sessions.Selection.Get(w, r, u.ID.Hex()); ok {
			st.SelectWorkspace(ws)
		}
	}

	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))
	apiout.JSON(w, status, tokenResponse{AccessToken: tok})
}
