// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound       = errors.New("workspace not found")
	ErrNotMember      = errors.New("user is not a member of this workspace")
	ErrAlreadyMember  = errors.New("user is already a member of this workspace")
	ErrOwnerImmovable = errors.New("the owner cannot be removed or demoted")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// Create inserts a workspace owned by owner, with the owner as its first
// member.
func (s *Store) Create(ctx context.Context, name string, owner models.User) (models.Workspace, error) {
	now := time.Now().UTC()
	ws := models.Workspace{
		ID:      primitive.NewObjectID(),
		Name:    strings.TrimSpace(name),
		OwnerID: owner.ID,
		Members: []models.Member{{
			UserID:   owner.ID,
			Name:     owner.Name,
			Email:    owner.Email,
			Role:     models.RoleOwner,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ws.NameCI = text.Fold(ws.Name)

	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// ListForUser returns the workspaces the user belongs to, sorted by name.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"members.user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var workspaces []models.Workspace
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Rename changes the workspace name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workspace by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember appends a member to the workspace. Fails with ErrAlreadyMember
// if the user is already on the member list; the filter makes the check and
// the push a single atomic write.
func (s *Store) AddMember(ctx context.Context, id primitive.ObjectID, m models.Member) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": bson.M{"$ne": m.UserID}},
		bson.M{
			"$push": bson.M{"members": m},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the workspace is gone or the user is already a member.
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyMember
	}
	return nil
}

// UpdateMemberRole changes a member's role. The owner's role is immutable.
func (s *Store) UpdateMemberRole(ctx context.Context, id, userID primitive.ObjectID, role string) error {
	ws, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ws.OwnerID == userID {
		return ErrOwnerImmovable
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.role": role,
			"updated_at":     time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// RemoveMember pulls a member off the workspace. The owner cannot be
// removed; deleting the workspace is the only way out for the owner.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	ws, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ws.OwnerID == userID {
		return ErrOwnerImmovable
	}
	if !ws.IsMember(userID) {
		return ErrNotMember
	}

	_, err = s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// SyncMemberIdentity propagates a user's profile changes into the
// denormalized member entries across all their workspaces.
func (s *Store) SyncMemberIdentity(ctx context.Context, userID primitive.ObjectID, name, email string) error {
	_, err := s.c.UpdateMany(ctx,
		bson.M{"members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.name":  name,
			"members.$.email": email,
		}})
	return err
}

// EnsureIndexes creates indexes for the workspaces collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "members.user_id", Value: 1}},
			Options: options.Index().SetName("idx_workspace_member"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_workspace_name_ci"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
