package comm

import (
	"encoding/json"
	"time"

	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NATS subjects shared by the services.
const (
	SubjectEmail      = "notify.email"
	SubjectGameEvents = "game.events"
	SubjectPayments   = "payment.service"
)

// Message types carried in WSMessage.Type.
const (
	TypeEmail         = "email"
	TypePayoutRequest = "payout-request"

	TypeGameCreated   = "game-created"
	TypeGameUpdated   = "game-updated"
	TypePlayerJoined  = "player-joined"
	TypePlayerDropped = "player-dropped"
	TypeGameCancelled = "game-cancelled"
	TypeGameDeleted   = "game-deleted"

	TypeWatch   = "watch"
	TypeUnwatch = "unwatch"
	TypeError   = "error"
)

// IsGameEvent reports whether t is one of the roster event types.
func IsGameEvent(t string) bool {
	switch t {
	case TypeGameCreated, TypeGameUpdated, TypePlayerJoined, TypePlayerDropped, TypeGameCancelled, TypeGameDeleted:
		return true
	}
	return false
}

// WSMessage is the envelope for everything sent over NATS and the websocket.
type WSMessage struct {
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
	SentAt   time.Time       `json:"sentAt"`
}

// NewMessage marshals data into a fresh envelope of type t.
func NewMessage(t string, data interface{}) (*WSMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &WSMessage{
		ID:     uuid.New().String(),
		Type:   t,
		Data:   raw,
		SentAt: time.Now().UTC(),
	}, nil
}

// Email asks the notification dispatcher to render Template and send it.
type Email struct {
	Template string                 `json:"template"`
	To       string                 `json:"to,omitempty"`
	Bcc      []string               `json:"bcc,omitempty"`
	ReplyTo  string                 `json:"replyTo,omitempty"`
	Locals   map[string]interface{} `json:"locals"`
}

// Recipients counts every address the e-mail goes to.
func (e Email) Recipients() int {
	n := len(e.Bcc)
	if e.To != "" {
		n++
	}
	return n
}

// GameEvent is published after every roster mutation.
type GameEvent struct {
	GameID   string       `json:"game_id"`
	Username string       `json:"username,omitempty"`
	Game     *models.Game `json:"game"`
}

// WatchRequest is sent by websocket clients to follow a game.
type WatchRequest struct {
	GameID string `json:"game_id"`
}

// PayoutRequest asks the external payout processor to pay a host for one game.
type PayoutRequest struct {
	GameID       string          `json:"game_id"`
	GameName     string          `json:"game_name"`
	Host         string          `json:"host"`
	PayoutsEmail string          `json:"payouts_email"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentIDs   []string        `json:"payment_ids"`
	PayoutDate   time.Time       `json:"payout_date"`
}
