// Package validators attaches JSON-Schema validation to the app's MongoDB
// collections so malformed documents are rejected at the database, not just
// by handler-level checks.
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/fundio/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("workspaces", workspacesSchema())
	ensure("workspace_invites", invitesSchema())
	ensure("bank_accounts", bankAccountsSchema())
	ensure("credit_cards", creditCardsSchema())

	// OAuth states are short-lived and index-governed; the collection just
	// has to exist so the TTL index can be built.
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "email_ci", "auth_provider"},
			"properties": bson.M{
				"name":          bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":       bson.M{"bsonType": "string"},
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":      bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string"},
				"auth_provider": bson.M{"enum": bson.A{models.AuthProviderLocal, models.AuthProviderGoogle}},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func workspacesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "owner_id", "members"},
			"properties": bson.M{
				"name":     bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":  bson.M{"bsonType": "string", "minLength": 1},
				"owner_id": bson.M{"bsonType": "objectId"},
				"members": bson.M{
					"bsonType": "array",
					"minItems": 1,
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"user_id", "role"},
						"properties": bson.M{
							"user_id":   bson.M{"bsonType": "objectId"},
							"name":      bson.M{"bsonType": "string"},
							"email":     bson.M{"bsonType": "string"},
							"role":      bson.M{"enum": bson.A{models.RoleOwner, models.RoleAdmin, models.RoleMember}},
							"joined_at": bson.M{"bsonType": "date"},
						},
					},
				},
				"created_at": bson.M{"bsonType": "date"},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func invitesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "email", "email_ci", "role", "token", "status"},
			"properties": bson.M{
				"workspace_id":   bson.M{"bsonType": "objectId"},
				"workspace_name": bson.M{"bsonType": "string"},
				"email":          bson.M{"bsonType": "string", "minLength": 3},
				"email_ci":       bson.M{"bsonType": "string", "minLength": 3},
				"role":           bson.M{"enum": bson.A{models.RoleAdmin, models.RoleMember}},
				"token":          bson.M{"bsonType": "string", "minLength": 1},
				"status":         bson.M{"enum": bson.A{models.InviteStatusPending, models.InviteStatusAccepted, models.InviteStatusDeclined}},
				"invited_by":     bson.M{"bsonType": "objectId"},
				"created_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

func bankAccountsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "name", "bank_code"},
			"properties": bson.M{
				"workspace_id":    bson.M{"bsonType": "objectId"},
				"name":            bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"bank_code":       bson.M{"bsonType": "string", "pattern": "^[0-9]{1,3}$"},
				"owner_id":        bson.M{"bsonType": "objectId"},
				"initial_balance": bson.M{"bsonType": "string", "pattern": "^[0-9]+(\\.[0-9]{1,2})?$"},
				"agency":          bson.M{"bsonType": "string"},
				"number":          bson.M{"bsonType": "string"},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func creditCardsSchema() bson.M {
	// Build the brand enum from the canonical list in the domain models.
	brandEnum := bson.A{""}
	for _, b := range models.CardBrands {
		brandEnum = append(brandEnum, b)
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "name", "card_type", "due_day"},
			"properties": bson.M{
				"workspace_id":      bson.M{"bsonType": "objectId"},
				"name":              bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"card_type":         bson.M{"enum": bson.A{models.CardTypeHolder, models.CardTypeThirdParty}},
				"brand":             bson.M{"enum": brandEnum},
				"workspace_user_id": bson.M{"bsonType": "objectId"},
				"holder_name":       bson.M{"bsonType": "string"},
				"bank_code":         bson.M{"bsonType": "string"},
				"last_four_digits":  bson.M{"bsonType": "string", "pattern": "^[0-9]{4}$"},
				"credit_limit":      bson.M{"bsonType": "string", "pattern": "^[0-9]+(\\.[0-9]{1,2})?$"},
				"due_day":           bson.M{"bsonType": "int", "minimum": 1, "maximum": 31},
				"created_at":        bson.M{"bsonType": "date"},
				"updated_at":        bson.M{"bsonType": "date"},
			},
		},
	}
}
