package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GameTypePublic  = "public"
	GameTypePrivate = "private"
)

// Game is a pickup game document. Players and Invited are embedded, not references.
type Game struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Date          time.Time          `json:"date" bson:"date"`
	Type          string             `json:"type" bson:"type"`               // public or private
	Invited       []string           `json:"invited" bson:"invited"`         // e-mails, only used by private games
	Location      string             `json:"location" bson:"location"`       // free text
	Host          string             `json:"host" bson:"host"`               // host username
	MaxPlayers    int                `json:"maxPlayers" bson:"maxPlayers"`   // roster capacity
	Players       []string           `json:"players" bson:"players"`         // usernames, host first
	CostPerPlayer decimal.Decimal    `json:"costPerPlayer" bson:"costPerPlayer"`
	Active        bool               `json:"active" bson:"active"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (g *Game) IsPrivate() bool {
	return strings.EqualFold(g.Type, GameTypePrivate)
}

// HasPlayer reports whether username is on the roster.
func (g *Game) HasPlayer(username string) bool {
	return g.playerIndex(username) >= 0
}

// RemovePlayer drops the first occurrence of username and reports whether it was present.
func (g *Game) RemovePlayer(username string) bool {
	i := g.playerIndex(username)
	if i < 0 {
		return false
	}
	players := make([]string, 0, len(g.Players)-1)
	players = append(players, g.Players[:i]...)
	g.Players = append(players, g.Players[i+1:]...)
	return true
}

// Openings is the number of free roster spots, never negative.
func (g *Game) Openings() int {
	if n := g.MaxPlayers - len(g.Players); n > 0 {
		return n
	}
	return 0
}

func (g *Game) IsFull() bool {
	return g.MaxPlayers > 0 && len(g.Players) >= g.MaxPlayers
}

func (g *Game) playerIndex(username string) int {
	for i, p := range g.Players {
		if p == username {
			return i
		}
	}
	return -1
}

// GamePatch holds the optional fields of a game update; nil means "not sent".
type GamePatch struct {
	Name          *string          `json:"name"`
	Date          *time.Time       `json:"date"`
	Type          *string          `json:"type"`
	Invited       *[]string        `json:"invited"`
	Location      *string          `json:"location"`
	Host          *string          `json:"host"`
	MaxPlayers    *int             `json:"maxPlayers"`
	Players       *[]string        `json:"players"`
	CostPerPlayer *decimal.Decimal `json:"costPerPlayer"`
	Active        *bool            `json:"active"`
}

// GameInput is the body of a game creation request.
type GameInput struct {
	Name          string          `json:"name"`
	Date          time.Time       `json:"date"`
	Type          string          `json:"type"`
	Location      string          `json:"location"`
	Host          string          `json:"host"`
	MaxPlayers    int             `json:"maxPlayers"`
	CostPerPlayer decimal.Decimal `json:"costPerPlayer"`
	EmailList     []string        `json:"emailList"`
	Invited       []string        `json:"invited"`
}
