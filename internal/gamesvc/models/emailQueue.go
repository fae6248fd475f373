package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailQueue is a deferred reminder for a public game.
type EmailQueue struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	GameID    primitive.ObjectID `json:"gameID" bson:"gameID"`
	SendDate  time.Time          `json:"sendDate" bson:"sendDate"`
	Sent      bool               `json:"sent" bson:"sent"`
	SentAt    *time.Time         `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	ExpiresAt *time.Time         `json:"-" bson:"expires_at,omitempty"` // TTL index field, set once sent
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
