// internal/app/store/invites/invitestore.go
package invitestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fundio/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	userstore "github.com/dalemusser/fundio/internal/app/store/users"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound         = errors.New("invite not found")
	ErrDuplicatePending = errors.New("a pending invite for this email already exists")
	ErrNotPending       = errors.New("invite is no longer pending")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspace_invites")}
}

// Create inserts a pending invite with a fresh token. Only one pending
// invite per (workspace, email) may exist; the partial unique index
// enforces that.
func (s *Store) Create(ctx context.Context, inv models.WorkspaceInvite) (models.WorkspaceInvite, error) {
	inv.ID = primitive.NewObjectID()
	inv.Email = userstore.NormalizeEmail(inv.Email)
	inv.EmailCI = text.Fold(inv.Email)
	inv.Token = uuid.NewString()
	inv.Status = models.InviteStatusPending
	inv.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.WorkspaceInvite{}, ErrDuplicatePending
		}
		return models.WorkspaceInvite{}, err
	}
	return inv, nil
}

// GetByToken retrieves an invite by its opaque token.
func (s *Store) GetByToken(ctx context.Context, token string) (models.WorkspaceInvite, error) {
	var inv models.WorkspaceInvite
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.WorkspaceInvite{}, ErrNotFound
		}
		return models.WorkspaceInvite{}, err
	}
	return inv, nil
}

// ListPendingForEmail returns the pending invites addressed to email,
// newest first.
func (s *Store) ListPendingForEmail(ctx context.Context, email string) ([]models.WorkspaceInvite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{
		"email":  userstore.NormalizeEmail(email),
		"status": models.InviteStatusPending,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invites []models.WorkspaceInvite
	if err := cur.All(ctx, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// Resolve flips a pending invite to the given terminal status. The status
// filter makes resolution one-shot: a second accept or decline of the same
// token fails with ErrNotPending.
func (s *Store) Resolve(ctx context.Context, token, status string) (models.WorkspaceInvite, error) {
	var inv models.WorkspaceInvite
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"token": token, "status": models.InviteStatusPending},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if err == mongo.ErrNoDocuments {
		// Distinguish unknown token from already-resolved invite.
		if _, getErr := s.GetByToken(ctx, token); getErr != nil {
			return models.WorkspaceInvite{}, getErr
		}
		return models.WorkspaceInvite{}, ErrNotPending
	}
	if err != nil {
		return models.WorkspaceInvite{}, err
	}
	return inv, nil
}

// DeleteForWorkspace removes all invites of a workspace; used when the
// workspace itself is deleted.
func (s *Store) DeleteForWorkspace(ctx context.Context, wsID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": wsID})
	return err
}

// EnsureIndexes creates indexes for the invites collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_invite_token"),
		},
		{
			Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_invite_pending").
				SetPartialFilterExpression(bson.M{"status": models.InviteStatusPending}),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_invite_email_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
