// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/fundio/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/app/system/timeouts"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds the Google round trip; a consent screen left open longer
// than this has to start over.
const stateTTL = 10 * time.Minute

// Handler runs the Google OAuth sign-in flow. Unknown Google accounts get a
// user record created on first sign-in; known emails sign into the existing
// account regardless of how it was created.
type Handler struct {
	Users    *userstore.Store
	States   *oauthstate.Store
	Tokens   *sysauth.Manager
	Sessions *session.Manager
	Log      *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string

	// userInfoURL is swapped out in tests.
	userInfoURL string
	endpoint    oauth2.Endpoint
}

// NewHandler constructs a Google OAuth Handler. baseURL is the externally
// visible origin, e.g. "https://app.fundio.com.br".
func NewHandler(
	users *userstore.Store,
	states *oauthstate.Store,
	tokens *sysauth.Manager,
	sessions *session.Manager,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        users,
		States:       states,
		Tokens:       tokens,
		Sessions:     sessions,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		endpoint:     google.Endpoint,
	}
}

// IsConfigured reports whether the Google credentials are set. Unconfigured
// deployments keep the routes but bounce to login.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.endpoint,
	}
}

// ServeLogin handles GET /auth/google: saves a fresh state token and sends
// the browser to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("google oauth not configured")
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("oauth state generation failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save oauth state")
	defer cancel()

	returnURL := query.Get(r, "return")
	if err := h.States.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("oauth state save failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates the state,
// exchanges the code, resolves or creates the user, and establishes the
// session before redirecting into the app.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("google oauth denied", zap.String("error", errParam))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=google_denied", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "google oauth callback")
	defer cancel()

	state := query.Get(r, "state")
	returnURL, valid, err := h.States.Validate(ctx, state)
	if err != nil {
		h.Log.Error("oauth state validation failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}
	if state == "" || !valid {
		h.Log.Warn("invalid or expired oauth state")
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=invalid_code", http.StatusSeeOther)
		return
	}
	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth code exchange failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=token_exchange", http.StatusSeeOther)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("google userinfo fetch failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=user_info", http.StatusSeeOther)
		return
	}
	if info.Email == "" {
		h.Log.Warn("google userinfo missing email")
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=user_info", http.StatusSeeOther)
		return
	}

	u, err := h.resolveUser(ctx, info)
	if err != nil {
		h.Log.Error("google user resolution failed", zap.Error(err))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		http.Redirect(w, r, h.Sessions.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}
	h.Tokens.Credentials.Save(w, r, tok)

	if st, ok := session.FromRequest(r); ok {
		st.Login(session.User{ID: u.ID.Hex(), Name: u.FirstName(), Email: u.Email})
		if ws, ok := h.Sessions.Selection.Get(w, r, u.ID.Hex()); ok {
			st.SelectWorkspace(ws)
		}
	}

	h.Log.Info("user signed in via google", zap.String("user_id", u.ID.Hex()))
	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", h.Sessions.SelectionPath), http.StatusSeeOther)
}

// googleUserInfo is the subset of Google's userinfo payload we consume.
type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &info, nil
}

// resolveUser finds the account matching the Google email or creates one.
// A local account with the same email is reused; password sign-in keeps
// working for it.
func (h *Handler) resolveUser(ctx context.Context, info *googleUserInfo) (models.User, error) {
	u, err := h.Users.GetByEmail(ctx, info.Email)
	if err == nil {
		return u, nil
	}
	if err != userstore.ErrNotFound {
		return models.User{}, err
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	u, err = h.Users.Create(ctx, models.User{
		Name:         name,
		Email:        info.Email,
		AuthProvider: models.AuthProviderGoogle,
	})
	if err == userstore.ErrDuplicateEmail {
		// Lost a race with a concurrent first sign-in; the account exists now.
		return h.Users.GetByEmail(ctx, info.Email)
	}
	if err != nil {
		return models.User{}, err
	}

	h.Log.Info("user created via google", zap.String("user_id", u.ID.Hex()))
	return u, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
