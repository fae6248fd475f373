package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is money owed to a game host, settled by the external payout process.
type Payment struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	GameID      primitive.ObjectID `json:"gameID" bson:"gameID"`
	Payer       string             `json:"payer" bson:"payer"`
	PayoutDate  time.Time          `json:"payoutDate" bson:"payoutDate"`
	Amount      decimal.Decimal    `json:"amount" bson:"amount"`
	Paid        bool               `json:"paid" bson:"paid"`
	RequestedAt *time.Time         `json:"requestedAt,omitempty" bson:"requestedAt,omitempty"`
	// VoidedAt is set when the game was cancelled or deleted before payout.
	VoidedAt    *time.Time         `json:"voidedAt,omitempty" bson:"voidedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

func init() {
	// amounts go over the wire as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}
