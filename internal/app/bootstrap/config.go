// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for fundio.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: FUNDIO_MONGO_URI, FUNDIO_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fundio", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Access token signing secret (must be strong in production)"},
	{Name: "token_expiry_days", Default: 7, Desc: "Access token and credential cookie lifetime in days"},
	{Name: "session_hash_key", Default: "dev-only-32-byte-key-0123456789ab", Desc: "Workspace selection cookie signing key (32 or 64 bytes)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Externally visible origin, used for OAuth callbacks"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Banks directory
	{Name: "banks_api_url", Default: "", Desc: "Banks directory URL (default: BrasilAPI)"},
	{Name: "banks_cache_ttl", Default: "24h", Desc: "Banks directory cache lifetime"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific to
// this app. Precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FUNDIO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret:     appValues.String("token_secret"),
		TokenExpiryDays: appValues.Int("token_expiry_days"),
		SessionHashKey:  appValues.String("session_hash_key"),

		BaseURL: appValues.String("base_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BanksAPIURL:   appValues.String("banks_api_url"),
		BanksCacheTTL: appValues.Duration("banks_cache_ttl", 24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backends are touched.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if n := len(appCfg.SessionHashKey); n != 32 && n != 64 {
		return fmt.Errorf("session_hash_key must be 32 or 64 bytes, got %d", n)
	}
	if appCfg.TokenExpiryDays < 1 {
		return fmt.Errorf("token_expiry_days must be at least 1, got %d", appCfg.TokenExpiryDays)
	}
	if coreCfg.Env == "prod" && appCfg.TokenSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("token_secret must be changed for production")
	}
	return nil
}
