// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS); AppConfig is everything specific to fundio.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// TokenSecret signs the access tokens; TokenExpiryDays bounds both the
	// token lifetime and the credential cookie age.
	TokenSecret     string
	TokenExpiryDays int

	// SessionHashKey signs the workspace selection cookie. 32 or 64 bytes.
	SessionHashKey string

	// BaseURL is the externally visible origin, used for OAuth callbacks.
	BaseURL string

	// Google OAuth configuration. Blank disables Google sign-in.
	GoogleClientID     string
	GoogleClientSecret string

	// Banks directory configuration.
	BanksAPIURL   string
	BanksCacheTTL time.Duration
}
