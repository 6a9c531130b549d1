// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/fundio/internal/app/features/accounts"
	authfeature "github.com/dalemusser/fundio/internal/app/features/auth"
	authgooglefeature "github.com/dalemusser/fundio/internal/app/features/authgoogle"
	banksfeature "github.com/dalemusser/fundio/internal/app/features/banks"
	cardsfeature "github.com/dalemusser/fundio/internal/app/features/cards"
	healthfeature "github.com/dalemusser/fundio/internal/app/features/health"
	invitesfeature "github.com/dalemusser/fundio/internal/app/features/invites"
	sessioninfofeature "github.com/dalemusser/fundio/internal/app/features/sessioninfo"
	workspacesfeature "github.com/dalemusser/fundio/internal/app/features/workspaces"
	accountstore "github.com/dalemusser/fundio/internal/app/store/accounts"
	cardstore "github.com/dalemusser/fundio/internal/app/store/cards"
	invitestore "github.com/dalemusser/fundio/internal/app/store/invites"
	"github.com/dalemusser/fundio/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/limits"
	"github.com/dalemusser/fundio/internal/app/system/selection"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The layout:
//
//	/health               liveness + database check (public)
//	/auth                 email/password sign-in and sign-up (public)
//	/auth/google          Google OAuth consent + callback (public)
//	/session, /logout     session snapshot and teardown
//	/workspaces           workspace CRUD, membership, selection, and the
//	                      nested bank-accounts and credit-cards resources
//	/invites              workspace invites (create, pending, accept, decline)
//	/banks                banks directory proxy
//
// Everything below /workspaces, /invites, and /banks requires a signed-in
// user via the bearer-token middleware.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.FundioMongoDatabase

	users := userstore.New(db)
	workspaces := workspacestore.New(db)
	invites := invitestore.New(db)
	accounts := accountstore.New(db)
	cards := cardstore.New(db)
	states := oauthstate.New(db)

	tokens := sysauth.NewManager([]byte(appCfg.TokenSecret), appCfg.TokenExpiryDays, logger)
	sessions := session.NewManager(tokens.Credentials, selection.New([]byte(appCfg.SessionHashKey)), logger)

	r := chi.NewRouter()

	// Cap request bodies before any handler reads them.
	r.Use(limits.Body)

	// Global session middleware: reconciles the credential and selection
	// cookies into a per-request session state.
	r.Use(sessions.Middleware)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.FundioMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	authHandler := authfeature.NewHandler(users, tokens, sessions, logger)
	r.Mount("/auth", authfeature.Routes(authHandler))

	googleHandler := authgooglefeature.NewHandler(
		users, states, tokens, sessions,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	// Session snapshot and logout live at the root.
	sessionHandler := sessioninfofeature.NewHandler(sessions, logger)
	r.Mount("/", sessioninfofeature.Routes(sessionHandler))

	// Everything below requires a signed-in user. The token middleware
	// answers 401 for API callers; the session guard keeps browser
	// navigation consistent, redirecting to login once the credential
	// cookie is gone.
	r.Group(func(r chi.Router) {
		r.Use(tokens.RequireSignedIn)
		r.Use(sessions.RequireAuth)

		accountsHandler := accountsfeature.NewHandler(accounts, workspaces, logger)
		cardsHandler := cardsfeature.NewHandler(cards, workspaces, logger)

		workspacesHandler := workspacesfeature.NewHandler(workspaces, accounts, cards, invites, sessions, logger)
		r.Mount("/workspaces", workspacesfeature.Routes(
			workspacesHandler,
			accountsfeature.Routes(accountsHandler),
			cardsfeature.Routes(cardsHandler),
		))

		invitesHandler := invitesfeature.NewHandler(invites, workspaces, logger)
		r.Mount("/invites", invitesfeature.Routes(invitesHandler))

		banksClient := banksfeature.NewClient(appCfg.BanksAPIURL, appCfg.BanksCacheTTL, logger)
		banksHandler := banksfeature.NewHandler(banksClient, logger)
		r.Mount("/banks", banksfeature.Routes(banksHandler))
	})

	return r, nil
}
