// internal/app/store/cards/cardstore.go
package cardstore

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

var ErrNotFound = errors.New("credit card not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("credit_cards")}
}

// Create inserts a credit card.
func (s *Store) Create(ctx context.Context, cc models.CreditCard) (models.CreditCard, error) {
	now := time.Now().UTC()
	cc.ID = primitive.NewObjectID()
	cc.Name = strings.TrimSpace(cc.Name)
	cc.CreatedAt = now
	cc.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, cc); err != nil {
		return models.CreditCard{}, err
	}
	return cc, nil
}

// GetByID retrieves a card scoped to its workspace.
func (s *Store) GetByID(ctx context.Context, wsID, id primitive.ObjectID) (models.CreditCard, error) {
	var cc models.CreditCard
	err := s.c.FindOne(ctx, bson.M{"_id": id, "workspace_id": wsID}).Decode(&cc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.CreditCard{}, ErrNotFound
		}
		return models.CreditCard{}, err
	}
	return cc, nil
}

// ListForWorkspace returns the workspace's cards sorted by name.
func (s *Store) ListForWorkspace(ctx context.Context, wsID primitive.ObjectID) ([]models.CreditCard, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": wsID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cards []models.CreditCard
	if err := cur.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Update replaces the mutable fields of a card.
func (s *Store) Update(ctx context.Context, wsID, id primitive.ObjectID, cc models.CreditCard) error {
	set := bson.M{
		"name":              strings.TrimSpace(cc.Name),
		"card_type":         cc.CardType,
		"brand":             cc.Brand,
		"workspace_user_id": cc.WorkspaceUserID,
		"holder_name":       cc.HolderName,
		"bank_code":         cc.BankCode,
		"last_four_digits":  cc.LastFourDigits,
		"credit_limit":      cc.CreditLimit,
		"due_day":           cc.DueDay,
		"updated_at":        time.Now().UTC(),
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

// Delete removes a card scoped to its workspace.
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

// DeleteForWorkspace removes all cards of a workspace.
func (s *Store) DeleteForWorkspace(ctx context.Context, wsID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"workspace_id": wsID})
	return err
}

// EnsureIndexes creates indexes for the credit cards collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_card_workspace_name"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
