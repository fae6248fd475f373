package testutil

import (
	"time"

	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GameDate is the start time used by fixture games.
var GameDate = time.Date(2026, 11, 6, 2, 30, 0, 0, time.UTC)

// PublicGame returns an active public game hosted by host with room for ten.
func PublicGame(host string) *models.Game {
	return &models.Game{
		ID:            primitive.NewObjectID(),
		Name:          "Friday skate",
		Date:          GameDate,
		Type:          models.GameTypePublic,
		Location:      "Johnny's IceHouse",
		Host:          host,
		MaxPlayers:    10,
		Players:       []string{host},
		Invited:       []string{},
		CostPerPlayer: decimal.NewFromInt(5),
		Active:        true,
	}
}

func PrivateGame(host string, invited ...string) *models.Game {
	g := PublicGame(host)
	g.Type = models.GameTypePrivate
	g.Invited = invited
	return g
}

// User returns a user whose e-mail is username@x.com.
func User(username string, notify bool) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    username + "@x.com",
		Profile: models.Profile{
			EmailList: []string{},
			Notify:    notify,
			Payments:  []models.ProfilePayment{},
		},
	}
}
