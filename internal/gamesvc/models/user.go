package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleRegular = 0
	RoleAdmin   = 1
)

// User represents the users collection in the database.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	FirstName    string             `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     string             `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	ZipCode      string             `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	ReferralType string             `json:"referralType,omitempty" bson:"referralType,omitempty"`
	Password     string             `json:"-" bson:"password"` // bcrypt hash
	Role         int                `json:"role" bson:"role"`
	Profile      Profile            `json:"profile" bson:"profile"`
	Metrics      Metrics            `json:"metrics" bson:"metrics"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type Profile struct {
	PayoutsEmail string           `json:"payoutsEmail,omitempty" bson:"payoutsEmail,omitempty"`
	EmailList    []string         `json:"emailList" bson:"emailList"`
	Notify       bool             `json:"notify" bson:"notify"`
	Payments     []ProfilePayment `json:"payments" bson:"payments"`
}

// ProfilePayment is the host-side, denormalized view of a fee owed by a player.
type ProfilePayment struct {
	GameID primitive.ObjectID `json:"gameID,omitempty" bson:"gameID,omitempty"`
	Game   string             `json:"game" bson:"game"`
	From   string             `json:"from" bson:"from"`
	Amount decimal.Decimal    `json:"amount" bson:"amount"`
}

type Metrics struct {
	LoginCount  int             `json:"loginCount" bson:"loginCount"`
	JoinDate    time.Time       `json:"joinDate" bson:"joinDate"`
	AmountSpent decimal.Decimal `json:"amountSpent" bson:"amountSpent"`
	GamesJoined int             `json:"gamesJoined" bson:"gamesJoined"`
	TimeOnIce   int             `json:"timeOnIce" bson:"timeOnIce"` // minutes
}

// ProfilePatch is the set of profile fields a user may change.
type ProfilePatch struct {
	PayoutsEmail *string   `json:"payoutsEmail"`
	EmailList    *[]string `json:"emailList"`
	Notify       *bool     `json:"notify"`
}
