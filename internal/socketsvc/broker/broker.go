package broker

import (
	"encoding/json"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/socketsvc/ws"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker relays game events from NATS to the sockets watching the game.
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*ws.Client, bool)
	GetGameSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*ws.Client, bool), fncGetGameSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetGameSockets: fncGetGameSockets,
	}
}

// consume game events from the game service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.HandleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// HandleMessages receives a message from the game service
func (b *Broker) HandleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("Error [Broker.HandleMessages] %s", err)
		return
	}

	if !comm.IsGameEvent(message.Type) {
		log.Warnf("unknown message type %s", message.Type)
		return
	}

	var event comm.GameEvent
	if err := json.Unmarshal(message.Data, &event); err != nil {
		log.Errorf("Error [Broker.HandleMessages] game event %s", err)
		return
	}

	sockets, ok := b.GetGameSockets(event.GameID)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		out := *message
		out.SocketId = socketId
		b.sendMessage(&out)
	}
	log.Debugf("relayed %s for game %s to %d sockets", message.Type, event.GameID, len(sockets))
}

// send socket message to the web client
func (b *Broker) sendMessage(m *comm.WSMessage) {
	if client, ok := b.GetConnection(m.SocketId); ok {
		if err := client.WriteJSON(m); err != nil {
			log.Errorf("Error writing to socket %s: %s", m.SocketId, err)
		}
	}
}
