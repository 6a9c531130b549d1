// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/fundio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("bank account not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bank_accounts")}
}

// Create inserts a bank account.
func (s *Store) Create(ctx context.Context, a models.BankAccount) (models.BankAccount, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Name = strings.TrimSpace(a.Name)
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.BankAccount{}, err
	}
	return a, nil
}

// GetByID retrieves a bank account scoped to its workspace. Scoping by
// both ids keeps one workspace from addressing another's accounts.
func (s *Store) GetByID(ctx context.Context, wsID, id primitive.ObjectID) (models.BankAccount, error) {
	var a models.BankAccount
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": wsID}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.BankAccount{}, ErrNotFound
		}
		return models.BankAccount{}, err
	}
	return a, nil
}

// ListForWorkspace returns the workspace's accounts sorted by name.
func (s *Store) ListForWorkspace(ctx context.Context, wsID primitive.ObjectID) ([]models.BankAccount, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": wsID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accounts []models.BankAccount
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update replaces the mutable fields of an account.
func (s *Store) Update(ctx context.Context, wsID, id primitive.ObjectID, a models.BankAccount) error {
	set := bson.M{
		"name":            strings.TrimSpace(a.Name),
		"bank_code":       a.BankCode,
		"owner_id":        a.OwnerID,
		"initial_balance": a.InitialBalance,
		"agency":          a.Agency,
		"number":          a.Number,
		"updated_at":      time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "workspace_id": wsID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account scoped to its workspace.
func (s *Store) Delete(ctx context.Context, wsID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "workspace_id": wsID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForWorkspace removes all accounts of a workspace.
func (s *Store) DeleteForWorkspace(ctx context.Context, wsID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": wsID})
	return err
}

// EnsureIndexes creates indexes for the bank accounts collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_account_workspace_name"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
