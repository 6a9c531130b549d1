package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BankAccount is a workspace-scoped bank account. BankCode references the
// national bank directory (see the banks feature); Agency and Number keep
// the branch/account identifiers as entered, digits and hyphens only.
type BankAccount struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspaceId"`

	Name     string `bson:"name" json:"name"`
	BankCode string `bson:"bank_code" json:"bankCode"`

	// OwnerID optionally assigns the account to one workspace member.
	OwnerID *primitive.ObjectID `bson:"owner_id,omitempty" json:"ownerId,omitempty"`

	// InitialBalance is a decimal string ("1234.56"); empty means unset.
	InitialBalance string `bson:"initial_balance,omitempty" json:"initialBalance,omitempty"`

	Agency string `bson:"agency,omitempty" json:"agency,omitempty"`
	Number string `bson:"number,omitempty" json:"account,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
