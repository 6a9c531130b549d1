// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	accountstore "github.com/dalemusser/fundio/internal/app/store/accounts"
	cardstore "github.com/dalemusser/fundio/internal/app/store/cards"
	invitestore "github.com/dalemusser/fundio/internal/app/store/invites"
	"github.com/dalemusser/fundio/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB connection and verifies it with a ping.
// The returned deps carry both the client (for health checks and shutdown)
// and the app database handle the stores are built on.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		FundioMongoClient:   client,
		FundioMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates collections, attaches JSON-Schema validators, and
// builds the indexes every store relies on. Runs once at startup; all
// operations are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.FundioMongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		// Validators are best effort: some managed MongoDB flavors reject
		// collMod. Indexes below are what correctness depends on.
		logger.Warn("schema validators not fully applied", zap.Error(err))
	}

	type indexer interface {
		EnsureIndexes(context.Context) error
	}
	for name, s := range map[string]indexer{
		"users":             userstore.New(db),
		"workspaces":        workspacestore.New(db),
		"workspace_invites": invitestore.New(db),
		"bank_accounts":     accountstore.New(db),
		"credit_cards":      cardstore.New(db),
		"oauth_states":      oauthstate.New(db),
	} {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes for %s: %w", name, err)
		}
	}

	logger.Info("schema ensured")
	return nil
}
