package ws

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func watch(t *testing.T, s *Ws, socketId, gameId string) {
	t.Helper()
	msg, err := comm.NewMessage(comm.TypeWatch, comm.WatchRequest{GameID: gameId})
	require.NoError(t, err)
	s.SocketMessage(socketId, msg)
}

func TestWatchAndUnwatch(t *testing.T) {
	s := NewWs()

	watch(t, s, "s1", "g1")
	watch(t, s, "s2", "g1")
	watch(t, s, "s3", "g2")

	sockets, ok := s.GetGameSockets("g1")
	require.True(t, ok)
	sort.Strings(sockets)
	assert.Equal(t, []string{"s1", "s2"}, sockets)

	s.SocketMessage("s1", &comm.WSMessage{Type: comm.TypeUnwatch})
	sockets, _ = s.GetGameSockets("g1")
	assert.Equal(t, []string{"s2"}, sockets)

	_, ok = s.GetWatching("s1")
	assert.False(t, ok)
}

func TestWatchReplacesPreviousGame(t *testing.T) {
	s := NewWs()

	watch(t, s, "s1", "g1")
	watch(t, s, "s1", "g2")

	game, ok := s.GetWatching("s1")
	require.True(t, ok)
	assert.Equal(t, "g2", game)

	_, ok = s.GetGameSockets("g1")
	assert.False(t, ok)
}

func TestInvalidWatchIsIgnored(t *testing.T) {
	s := NewWs()

	watch(t, s, "s1", "")
	s.SocketMessage("s1", &comm.WSMessage{Type: comm.TypeWatch, Data: json.RawMessage(`"nope"`)})

	_, ok := s.GetWatching("s1")
	assert.False(t, ok)
}

func TestDisconnectForgetsSocket(t *testing.T) {
	s := NewWs()
	watch(t, s, "s1", "g1")

	s.HandleDisconnect("s1")

	_, ok := s.GetGameSockets("g1")
	assert.False(t, ok)
	_, ok = s.GetConnection("s1")
	assert.False(t, ok)
}
