// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth providers for a user account.
const (
	AuthProviderLocal  = "local"  // email + password
	AuthProviderGoogle = "google" // Google OAuth
)

// User is an account holder. A user may belong to many workspaces; the
// memberships live on the workspace documents, not here.
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email   string             `bson:"email" json:"email"`
	EmailCI string             `bson:"email_ci" json:"-"`

	// PasswordHash is empty for OAuth-only accounts.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	AuthProvider string `bson:"auth_provider" json:"-"` // "local" or "google"

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// FirstName returns the first whitespace-delimited token of the user's name.
func (u User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' || r == '\t' {
			return u.Name[:i]
		}
	}
	return u.Name
}
