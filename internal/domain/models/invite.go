package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite statuses.
const (
	InviteStatusPending  = "PENDING"
	InviteStatusAccepted = "ACCEPTED"
	InviteStatusDeclined = "DECLINED"
)

// WorkspaceInvite is a pending invitation for an email address to join a
// workspace. The token is an opaque uuid used by accept/decline links.
type WorkspaceInvite struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspaceId"`

	// Denormalized for the pending-invites listing, so accepting a single
	// invite does not need a workspace join.
	WorkspaceName string `bson:"workspace_name" json:"workspaceName"`

	Email   string `bson:"email" json:"email"`
	EmailCI string `bson:"email_ci" json:"-"`
	Role    string `bson:"role" json:"role"` // ADMIN | MEMBER

	Token  string `bson:"token" json:"token"`
	Status string `bson:"status" json:"status"`

	InvitedBy primitive.ObjectID `bson:"invited_by" json:"invitedBy"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
