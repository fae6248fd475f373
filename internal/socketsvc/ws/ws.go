package ws

import (
	"encoding/json"
	"sync"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Client serializes writes to one websocket connection.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap  sync.Map // to keep track of socket connection with socketId
	watchMap sync.Map // to keep track of gameId with socketId
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case comm.TypeWatch:
		s.handleWatch(socketId, message)
	case comm.TypeUnwatch:
		s.watchMap.Delete(socketId)
		log.Infof("socket %s stopped watching", socketId)
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.sendError(socketId, "unknown message type "+message.Type)
	}
}

func (s *Ws) handleWatch(socketId string, msg *comm.WSMessage) {
	var payload comm.WatchRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: invalid_watch_data Malformed watch payload %s", err)
		s.sendError(socketId, "invalid watch payload")
		return
	}

	if payload.GameID == "" {
		log.Error("Invalid watch payload: missing game_id")
		s.sendError(socketId, "game_id is required")
		return
	}

	// one game per socket, a new watch replaces the old one
	s.watchMap.Store(socketId, payload.GameID)
	log.Infof("socket %s watching game %s", socketId, payload.GameID)
}

func (s *Ws) sendError(socketId, errorMsg string) {
	client, ok := s.GetConnection(socketId)
	if !ok {
		return
	}
	errorResponse := map[string]interface{}{
		"type":  comm.TypeError,
		"error": errorMsg,
	}
	if err := client.WriteJSON(errorResponse); err != nil {
		log.Errorf("Failed to send error message to client: %v", err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &Client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*Client, bool) {
	client, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return client.(*Client), true
}

// HandleDisconnect forgets everything known about socketId.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.watchMap.Delete(socketId)
}

func (s *Ws) GetWatching(socketId string) (string, bool) {
	game, ok := s.watchMap.Load(socketId)
	if !ok {
		return "", false
	}
	return game.(string), true
}

// GetGameSockets returns the sockets watching gameId.
func (s *Ws) GetGameSockets(gameId string) ([]string, bool) {
	var sockets []string
	found := false

	s.watchMap.Range(func(key, value interface{}) bool {
		if value.(string) == gameId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}
