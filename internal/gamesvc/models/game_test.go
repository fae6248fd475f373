package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovePlayer(t *testing.T) {
	tests := []struct {
		name     string
		players  []string
		drop     string
		removed  bool
		expected []string
	}{
		{"middle", []string{"host", "amy", "bob"}, "amy", true, []string{"host", "bob"}},
		{"last", []string{"host", "amy"}, "amy", true, []string{"host"}},
		{"host", []string{"host", "amy"}, "host", true, []string{"amy"}},
		{"absent", []string{"host", "amy"}, "zed", false, []string{"host", "amy"}},
		{"first occurrence only", []string{"host", "amy", "amy"}, "amy", true, []string{"host", "amy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{Players: append([]string(nil), tt.players...)}

			assert.Equal(t, tt.removed, g.RemovePlayer(tt.drop))
			assert.Equal(t, tt.expected, g.Players)
		})
	}
}

func TestRemovePlayerDoesNotAliasOriginal(t *testing.T) {
	original := []string{"host", "amy", "bob"}
	g := &Game{Players: original}

	g.RemovePlayer("host")

	assert.Equal(t, []string{"host", "amy", "bob"}, original)
}

func TestCapacity(t *testing.T) {
	g := &Game{MaxPlayers: 3, Players: []string{"host", "amy"}}
	assert.Equal(t, 1, g.Openings())
	assert.False(t, g.IsFull())

	g.Players = append(g.Players, "bob")
	assert.Equal(t, 0, g.Openings())
	assert.True(t, g.IsFull())

	g.Players = append(g.Players, "cat")
	assert.Equal(t, 0, g.Openings())
}

func TestIsPrivate(t *testing.T) {
	assert.True(t, (&Game{Type: "Private"}).IsPrivate())
	assert.False(t, (&Game{Type: GameTypePublic}).IsPrivate())
}

func TestAmountsMarshalAsNumbers(t *testing.T) {
	raw, err := json.Marshal(&Game{CostPerPlayer: decimal.RequireFromString("5.50")})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 5.5, out["costPerPlayer"])

	var g Game
	require.NoError(t, json.Unmarshal([]byte(`{"costPerPlayer":"7"}`), &g))
	assert.True(t, g.CostPerPlayer.Equal(decimal.NewFromInt(7)))
}
