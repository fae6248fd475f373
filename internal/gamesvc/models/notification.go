package models

import "time"

// Broadcast is the body of a game notification request.
type Broadcast struct {
	Type       string    `json:"type"`
	Host       string    `json:"host"`
	Email      string    `json:"email"`      // sender address, reply-to for private games
	Name       string    `json:"name"`       // game name
	PlayerName string    `json:"playerName"` // sender display name
	Message    string    `json:"message"`
	Players    []string  `json:"players"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location"`
}

// JoinRequest is the body of a roster join.
type JoinRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	First    string `json:"first"`
	Last     string `json:"last"`
}
