package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles within a workspace.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Workspace is the collaboration boundary that owns bank accounts, credit
// cards, and members. Members are embedded: workspaces are small (a household
// or a small team) and every read wants the member list anyway.
type Workspace struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`

	OwnerID primitive.ObjectID `bson:"owner_id" json:"ownerId"`
	Members []Member           `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Member links a user to a workspace with a role.
type Member struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"userId"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Role     string             `bson:"role" json:"role"` // OWNER | ADMIN | MEMBER
	JoinedAt time.Time          `bson:"joined_at" json:"joinedAt"`
}

// MemberRole returns the role of the given user in this workspace,
// or "" if the user is not a member.
func (w Workspace) MemberRole(userID primitive.ObjectID) string {
	for _, m := range w.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// IsMember reports whether the given user belongs to this workspace.
func (w Workspace) IsMember(userID primitive.ObjectID) bool {
	return w.MemberRole(userID) != ""
}

// CanManage reports whether the given user may mutate workspace settings
// and membership (owner or admin).
func (w Workspace) CanManage(userID primitive.ObjectID) bool {
	role := w.MemberRole(userID)
	return role == RoleOwner || role == RoleAdmin
}

// Summary is the workspace shape persisted in the selection cookie and
// returned by list endpoints. It intentionally omits the member list.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// Summarize converts a workspace into its summary form.
func (w Workspace) Summarize() Summary {
	return Summary{
		ID:      w.ID.Hex(),
		Name:    w.Name,
		OwnerID: w.OwnerID.Hex(),
	}
}
