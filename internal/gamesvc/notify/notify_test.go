package notify

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return NewPolicy("hockeycompass.com", "no-reply@hockeycompass.com", loc)
}

func testGame() *models.Game {
	return &models.Game{
		ID:         primitive.NewObjectID(),
		Name:       "Friday skate",
		Date:       time.Date(2026, 11, 6, 2, 30, 0, 0, time.UTC),
		Type:       models.GameTypePrivate,
		Location:   "Johnny's IceHouse",
		Host:       "host",
		MaxPlayers: 10,
		Players:    []string{"host", "amy"},
		Invited:    []string{"a@x.com", "b@x.com"},
	}
}

func TestFormatDateUsesDisplayZone(t *testing.T) {
	p := testPolicy(t)

	assert.Equal(t, "11/05/2026 8:30PM", p.FormatDate(testGame().Date))
}

func TestPrivateInvite(t *testing.T) {
	p := testPolicy(t)
	g := testGame()

	msg, ok := p.PrivateInvite(g)

	require.True(t, ok)
	assert.Equal(t, TemplateNotifyPrivate, msg.Template)
	assert.Equal(t, "no-reply@hockeycompass.com", msg.To)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, msg.Bcc)
	assert.Equal(t, "host", msg.Locals["host"])
	assert.Equal(t, g.ID.Hex(), msg.Locals["id"])

	g.Invited = nil
	_, ok = p.PrivateInvite(g)
	assert.False(t, ok)
}

func TestNewPlayerToHostCarriesRosterContext(t *testing.T) {
	p := testPolicy(t)
	g := testGame()

	msg := p.NewPlayerToHost(g, "host@x.com", models.JoinRequest{Username: "amy", First: "Amy", Last: "Lee"})

	assert.Equal(t, TemplateNewPlayerToHost, msg.Template)
	assert.Equal(t, "host@x.com", msg.To)
	assert.Equal(t, 2, msg.Locals["numOfPlayers"])
	assert.Equal(t, 8, msg.Locals["openings"])
	assert.Equal(t, "Amy", msg.Locals["first"])
	assert.Equal(t, "Lee", msg.Locals["last"])
}

func TestContactHostRepliesToSender(t *testing.T) {
	msg := testPolicy(t).ContactHost("host@x.com", models.Broadcast{Email: "amy@x.com", PlayerName: "Amy", Message: "room for one?"})

	assert.Equal(t, TemplateContactHost, msg.Template)
	assert.Equal(t, "host@x.com", msg.To)
	assert.Equal(t, "amy@x.com", msg.ReplyTo)
	assert.Equal(t, 1, msg.Recipients())
}

func TestBroadcastRecipients(t *testing.T) {
	users := []*models.User{
		{Username: "host", Email: "host@x.com", Profile: models.Profile{Notify: true}},
		{Username: "amy", Email: "amy@x.com", Profile: models.Profile{Notify: true}},
		{Username: "bob", Email: "bob@x.com", Profile: models.Profile{Notify: false}},
		{Username: "cat", Email: "cat@x.com", Profile: models.Profile{Notify: true}},
	}

	got := BroadcastRecipients(users, []string{"host", "bob"})

	// opted-in (3) minus rostered opted-in (host) = 2
	assert.Equal(t, []string{"amy@x.com", "cat@x.com"}, got)
}

func TestBroadcastRecipientsEmpty(t *testing.T) {
	got := BroadcastRecipients(nil, []string{"host"})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRosterEmails(t *testing.T) {
	users := []*models.User{
		{Username: "amy", Email: "amy@x.com"},
		{Username: "host", Email: "host@x.com"},
	}

	emails, missing := RosterEmails(users, []string{"host", "ghost", "amy"})

	assert.Equal(t, []string{"host@x.com", "amy@x.com"}, emails)
	assert.Equal(t, []string{"ghost"}, missing)
}

func TestIsPrivateBroadcast(t *testing.T) {
	assert.True(t, IsPrivateBroadcast(models.Broadcast{Type: " PRIVATE "}))
	assert.False(t, IsPrivateBroadcast(models.Broadcast{Type: "public"}))
	assert.False(t, IsPrivateBroadcast(models.Broadcast{}))
}
