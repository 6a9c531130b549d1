package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credit card types.
const (
	CardTypeHolder     = "HOLDER"      // owned by a workspace member
	CardTypeThirdParty = "THIRD_PARTY" // someone else's card tracked here
)

// CardBrands lists the accepted brand values.
var CardBrands = []string{"VISA", "MASTERCARD", "ELO", "AMEX", "HIPERCARD", "DINERS"}

// CreditCard is a workspace-scoped credit card.
//
// HOLDER cards belong to a workspace member (WorkspaceUserID, BankCode and
// CreditLimit required, HolderName must be empty). THIRD_PARTY cards track a
// card owned by someone outside the workspace (HolderName carries the name).
type CreditCard struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspaceId"`

	Name     string `bson:"name" json:"name"`
	CardType string `bson:"card_type" json:"cardType"`
	Brand    string `bson:"brand,omitempty" json:"brand,omitempty"`

	WorkspaceUserID *primitive.ObjectID `bson:"workspace_user_id,omitempty" json:"workspaceUserId,omitempty"`
	HolderName      string              `bson:"holder_name,omitempty" json:"holderName,omitempty"`

	BankCode       string `bson:"bank_code,omitempty" json:"bankCode,omitempty"`
	LastFourDigits string `bson:"last_four_digits,omitempty" json:"lastFourDigits,omitempty"`

	// CreditLimit is a decimal string ("1234.56"); empty means unset.
	CreditLimit string `bson:"credit_limit,omitempty" json:"creditLimit,omitempty"`

	// DueDay is the day of month the statement is due, 1..31.
	DueDay int `bson:"due_day" json:"dueDate"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
