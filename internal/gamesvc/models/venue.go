package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Venue struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Address     string             `json:"address,omitempty" bson:"address,omitempty"`
	City        string             `json:"city,omitempty" bson:"city,omitempty"`
	State       string             `json:"state,omitempty" bson:"state,omitempty"`
	Zip         string             `json:"zip,omitempty" bson:"zip,omitempty"`
	Phone       string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Website     string             `json:"website,omitempty" bson:"website,omitempty"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
	LastUpdated time.Time          `json:"lastUpdated" bson:"lastUpdated"`
}
