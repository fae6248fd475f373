package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker publishes e-mail requests, game events and payout requests on NATS.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// SendEmail hands msg to the notification service. Delivery is confirmed only by its logs.
func (b *Broker) SendEmail(ctx context.Context, msg comm.Email) error {
	return b.publishMessage(ctx, comm.SubjectEmail, comm.TypeEmail, msg)
}

func (b *Broker) PublishGameEvent(ctx context.Context, eventType string, game *models.Game, username string) error {
	event := comm.GameEvent{
		GameID:   game.ID.Hex(),
		Username: username,
		Game:     game,
	}
	return b.publishMessage(ctx, comm.SubjectGameEvents, eventType, event)
}

func (b *Broker) RequestPayout(ctx context.Context, req comm.PayoutRequest) error {
	return b.publishMessage(ctx, comm.SubjectPayments, comm.TypePayoutRequest, req)
}

func (b *Broker) publishMessage(ctx context.Context, topic, msgType string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := comm.NewMessage(msgType, data)
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", msgType, err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msgType, err)
	}

	return b.Publish(topic, payload)
}

// Publish sends a raw payload on topic.
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
