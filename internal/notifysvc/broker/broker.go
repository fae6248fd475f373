package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/metrics"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const deliverTimeout = 30 * time.Second

type Deliverer interface {
	Deliver(ctx context.Context, msg comm.Email) error
}

// Broker consumes e-mail requests published by the game service and the sweeps.
type Broker struct {
	Conn   *nats.Conn
	mailer Deliverer
}

func NewBroker(conn *nats.Conn, mailer Deliverer) *Broker {
	return &Broker{Conn: conn, mailer: mailer}
}

// QueueSubscribe shares topic between every notify instance in queueGroup
// so each e-mail goes out once.
func (b *Broker) QueueSubscribe(topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, queueGroup, b.HandleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) HandleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("Error [Broker.HandleMessages] %s", err)
		return
	}

	if message.Type != comm.TypeEmail {
		log.Warnf("unknown message type %s", message.Type)
		return
	}

	var email comm.Email
	if err := json.Unmarshal(message.Data, &email); err != nil {
		log.Errorf("Error [Broker.HandleMessages] email payload %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	err := b.mailer.Deliver(ctx, email)
	metrics.EmailsSent.WithLabelValues(email.Template, metrics.Outcome(err)).Inc()
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"message_id": message.ID,
			"template":   email.Template,
			"recipients": email.Recipients(),
		}).Error("Error [Broker.HandleMessages] delivering e-mail")
	}
}
