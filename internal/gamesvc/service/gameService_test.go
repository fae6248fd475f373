package service

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/avvvet/pickup-services/internal/gamesvc/notify"
	"github.com/avvvet/pickup-services/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	games    *testutil.GameStore
	users    *testutil.UserStore
	payments *testutil.PaymentStore
	queue    *testutil.EmailQueueStore
	mailer   *testutil.Mailer
	events   *testutil.Events
	svc      *GameService
}

func newFixture(games []*models.Game, users ...*models.User) *fixture {
	f := &fixture{
		games:    testutil.NewGameStore(games...),
		users:    testutil.NewUserStore(users...),
		payments: testutil.NewPaymentStore(),
		queue:    &testutil.EmailQueueStore{},
		mailer:   &testutil.Mailer{},
		events:   &testutil.Events{},
	}
	policy := notify.NewPolicy("hockeycompass.com", "no-reply@hockeycompass.com", time.UTC)
	f.svc = NewGameService(f.games, f.users, f.queue, NewPaymentService(f.payments, f.users),
		f.mailer, f.events, policy, NewTasks(time.Second))
	return f
}

func TestCreatePublicGameQueuesReminder(t *testing.T) {
	f := newFixture(nil)

	game, err := f.svc.CreateGame(context.Background(), models.GameInput{
		Name:          "Sunday skate",
		Date:          testutil.GameDate,
		Location:      "Rink",
		Host:          "host",
		MaxPlayers:    12,
		CostPerPlayer: decimal.NewFromInt(5),
	})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, models.GameTypePublic, game.Type)
	assert.Equal(t, []string{"host"}, game.Players)
	assert.True(t, game.Active)

	queued := f.queue.All()
	require.Len(t, queued, 1)
	assert.Equal(t, game.ID, queued[0].GameID)
	assert.True(t, queued[0].SendDate.Equal(testutil.GameDate.Add(-24*time.Hour)))
	assert.Empty(t, f.mailer.Emails())
}

func TestCreatePrivateGameInvitesList(t *testing.T) {
	f := newFixture(nil)

	game, err := f.svc.CreateGame(context.Background(), models.GameInput{
		Name:       "Invite only",
		Date:       testutil.GameDate,
		Type:       "Private",
		Host:       "host",
		MaxPlayers: 10,
		EmailList:  []string{"a@x.com", "b@x.com"},
	})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, models.GameTypePrivate, game.Type)
	assert.Empty(t, f.queue.All())

	sent := f.mailer.ByTemplate(notify.TemplateNotifyPrivate)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, sent[0].Bcc)
}

func TestCreateGameValidation(t *testing.T) {
	valid := models.GameInput{Name: "n", Date: testutil.GameDate, Host: "host", MaxPlayers: 2}

	tests := []struct {
		name   string
		mutate func(*models.GameInput)
	}{
		{"missing name", func(in *models.GameInput) { in.Name = " " }},
		{"missing host", func(in *models.GameInput) { in.Host = "" }},
		{"missing date", func(in *models.GameInput) { in.Date = time.Time{} }},
		{"no capacity", func(in *models.GameInput) { in.MaxPlayers = 0 }},
		{"negative cost", func(in *models.GameInput) { in.CostPerPlayer = decimal.NewFromInt(-1) }},
		{"unknown type", func(in *models.GameInput) { in.Type = "secret" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			in := valid
			tt.mutate(&in)

			_, err := f.svc.CreateGame(context.Background(), in)

			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestJoinNonHostRecordsPaymentAndSendsTwoEmails(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g}, testutil.User("host", true), testutil.User("amy", true))

	game, err := f.svc.JoinPlayer(context.Background(), g.ID.Hex(), models.JoinRequest{Username: "amy", Email: "amy@x.com", First: "Amy"})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"host", "amy"}, game.Players)
	assert.Equal(t, []string{"host", "amy"}, f.games.Get(g.ID).Players)

	payments := f.payments.All()
	require.Len(t, payments, 1)
	assert.Equal(t, "amy", payments[0].Payer)
	assert.Equal(t, g.ID, payments[0].GameID)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(5)))
	assert.False(t, payments[0].Paid)
	assert.True(t, payments[0].PayoutDate.Equal(g.Date))

	host, err := f.users.GetByUsername(context.Background(), "host")
	require.NoError(t, err)
	require.Len(t, host.Profile.Payments, 1)
	assert.Equal(t, "Friday skate", host.Profile.Payments[0].Game)
	assert.Equal(t, "amy", host.Profile.Payments[0].From)
	assert.True(t, host.Profile.Payments[0].Amount.Equal(decimal.NewFromInt(5)))

	emails := f.mailer.Emails()
	assert.Len(t, emails, 2)
	require.Len(t, f.mailer.ByTemplate(notify.TemplateJoinGame), 1)
	assert.Equal(t, "amy@x.com", f.mailer.ByTemplate(notify.TemplateJoinGame)[0].To)
	require.Len(t, f.mailer.ByTemplate(notify.TemplateNewPlayerToHost), 1)
	assert.Equal(t, "host@x.com", f.mailer.ByTemplate(notify.TemplateNewPlayerToHost)[0].To)

	assert.Contains(t, f.events.All(), testutil.Event{Type: comm.TypePlayerJoined, GameID: g.ID.Hex(), Username: "amy"})
}

func TestJoinLooksUpMissingEmail(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g}, testutil.User("host", true), testutil.User("amy", true))

	_, err := f.svc.JoinPlayer(context.Background(), g.ID.Hex(), models.JoinRequest{Username: "amy"})
	f.svc.Wait()

	require.NoError(t, err)
	sent := f.mailer.ByTemplate(notify.TemplateJoinGame)
	require.Len(t, sent, 1)
	assert.Equal(t, "amy@x.com", sent[0].To)
}

func TestHostRejoinRecordsNoPayment(t *testing.T) {
	g := testutil.PublicGame("host")
	g.Players = []string{"amy"}
	f := newFixture([]*models.Game{g}, testutil.User("host", true))

	game, err := f.svc.JoinPlayer(context.Background(), g.ID.Hex(), models.JoinRequest{Username: "host"})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "host"}, game.Players)
	assert.Empty(t, f.payments.All())
	assert.Empty(t, f.mailer.Emails())
}

func TestJoinConflicts(t *testing.T) {
	full := testutil.PublicGame("host")
	full.MaxPlayers = 1

	cancelled := testutil.PublicGame("host")
	cancelled.Active = false

	rostered := testutil.PublicGame("host")
	rostered.Players = []string{"host", "amy"}

	tests := []struct {
		name string
		game *models.Game
	}{
		{"full", full},
		{"cancelled", cancelled},
		{"already rostered", rostered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]*models.Game{tt.game}, testutil.User("host", true), testutil.User("amy", true))

			_, err := f.svc.JoinPlayer(context.Background(), tt.game.ID.Hex(), models.JoinRequest{Username: "amy"})
			f.svc.Wait()

			assert.ErrorIs(t, err, apperror.ErrConflict)
			assert.Equal(t, 0, f.games.Saves)
			assert.Empty(t, f.payments.All())
		})
	}
}

func TestJoinRequiresUsername(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g})

	_, err := f.svc.JoinPlayer(context.Background(), g.ID.Hex(), models.JoinRequest{Username: "  "})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestJoinUnknownGame(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.JoinPlayer(context.Background(), primitive.NewObjectID().Hex(), models.JoinRequest{Username: "amy"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.JoinPlayer(context.Background(), "not-an-id", models.JoinRequest{Username: "amy"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDropRetractsUnpaidPayment(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g}, testutil.User("host", true), testutil.User("amy", true))
	ctx := context.Background()

	_, err := f.svc.JoinPlayer(ctx, g.ID.Hex(), models.JoinRequest{Username: "amy"})
	require.NoError(t, err)
	f.svc.Wait()
	require.Len(t, f.payments.All(), 1)

	game, err := f.svc.DropPlayer(ctx, g.ID.Hex(), "amy")
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"host"}, game.Players)
	assert.Empty(t, f.payments.All())

	host, err := f.users.GetByUsername(ctx, "host")
	require.NoError(t, err)
	assert.Empty(t, host.Profile.Payments)
}

func TestDropAbsentPlayerIsNoop(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g})

	game, err := f.svc.DropPlayer(context.Background(), g.ID.Hex(), "zed")
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"host"}, game.Players)
	assert.Equal(t, 0, f.games.Saves)
	assert.Empty(t, f.events.All())
}

func TestDropRemovesFirstOccurrenceOnly(t *testing.T) {
	g := testutil.PublicGame("host")
	g.Players = []string{"host", "amy", "amy"}
	f := newFixture([]*models.Game{g})

	game, err := f.svc.DropPlayer(context.Background(), g.ID.Hex(), "amy")
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"host", "amy"}, game.Players)
}

func TestUpdateGameNotifiesOnlyOnLocationOrDate(t *testing.T) {
	newLocation := "Other rink"
	sameDate := testutil.GameDate.In(time.FixedZone("CST", -6*3600))
	newDate := testutil.GameDate.Add(time.Hour)
	newName := "Renamed"

	tests := []struct {
		name   string
		patch  models.GamePatch
		emails int
	}{
		{"location", models.GamePatch{Location: &newLocation}, 1},
		{"date", models.GamePatch{Date: &newDate}, 1},
		{"same instant", models.GamePatch{Date: &sameDate}, 0},
		{"name only", models.GamePatch{Name: &newName}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.PublicGame("host")
			g.Players = []string{"host", "amy"}
			f := newFixture([]*models.Game{g}, testutil.User("host", true), testutil.User("amy", true))

			_, err := f.svc.UpdateGame(context.Background(), g.ID.Hex(), tt.patch)
			f.svc.Wait()

			require.NoError(t, err)
			sent := f.mailer.ByTemplate(notify.TemplateGameUpdated)
			assert.Len(t, sent, tt.emails)
			if tt.emails > 0 {
				assert.ElementsMatch(t, []string{"host@x.com", "amy@x.com"}, sent[0].Bcc)
			}
		})
	}
}

func TestUpdateGameAppliesPatch(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g})
	name := "Late skate"
	maxPlayers := 20

	game, err := f.svc.UpdateGame(context.Background(), g.ID.Hex(), models.GamePatch{Name: &name, MaxPlayers: &maxPlayers})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, "Late skate", game.Name)
	assert.Equal(t, 20, f.games.Get(g.ID).MaxPlayers)
}

func TestUpdateGameRejectsInvalidPatch(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g})
	zero := 0

	_, err := f.svc.UpdateGame(context.Background(), g.ID.Hex(), models.GamePatch{MaxPlayers: &zero})

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 10, f.games.Get(g.ID).MaxPlayers)
}

func TestCancelGame(t *testing.T) {
	g := testutil.PublicGame("host")
	g.Players = []string{"host", "amy"}
	f := newFixture([]*models.Game{g}, testutil.User("host", true), testutil.User("amy", true))

	game, err := f.svc.CancelGame(context.Background(), g.ID.Hex())
	f.svc.Wait()

	require.NoError(t, err)
	assert.False(t, game.Active)
	assert.False(t, f.games.Get(g.ID).Active)
	assert.Len(t, f.mailer.ByTemplate(notify.TemplateGameCancelled), 1)

	_, err = f.svc.CancelGame(context.Background(), g.ID.Hex())
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, f.games.Saves)
	assert.Len(t, f.mailer.ByTemplate(notify.TemplateGameCancelled), 1)
}

func TestDeleteGame(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g})

	_, err := f.svc.DeleteGame(context.Background(), g.ID.Hex())
	f.svc.Wait()
	require.NoError(t, err)
	assert.Nil(t, f.games.Get(g.ID))

	_, err = f.svc.DeleteGame(context.Background(), g.ID.Hex())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestBroadcastPrivateGoesToHost(t *testing.T) {
	g := testutil.PrivateGame("host", "a@x.com")
	f := newFixture([]*models.Game{g}, testutil.User("host", true))

	err := f.svc.Broadcast(context.Background(), g.ID.Hex(), models.Broadcast{
		Type:       "private",
		Email:      "amy@x.com",
		PlayerName: "Amy",
		Message:    "room for one?",
	})
	f.svc.Wait()

	require.NoError(t, err)
	sent := f.mailer.Emails()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.TemplateContactHost, sent[0].Template)
	assert.Equal(t, "host@x.com", sent[0].To)
	assert.Equal(t, "amy@x.com", sent[0].ReplyTo)
}

func TestBroadcastPrivateUnknownHostStillAcks(t *testing.T) {
	g := testutil.PrivateGame("host")
	f := newFixture([]*models.Game{g})

	err := f.svc.Broadcast(context.Background(), g.ID.Hex(), models.Broadcast{Type: "private"})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Empty(t, f.mailer.Emails())
}

func TestBroadcastPublicSkipsRosteredAndOptedOut(t *testing.T) {
	g := testutil.PublicGame("host")
	g.Players = []string{"host", "bob"}
	f := newFixture([]*models.Game{g},
		testutil.User("host", true),
		testutil.User("amy", true),
		testutil.User("bob", false),
		testutil.User("cat", true),
	)

	err := f.svc.Broadcast(context.Background(), g.ID.Hex(), models.Broadcast{Type: "public"})
	f.svc.Wait()

	require.NoError(t, err)
	sent := f.mailer.ByTemplate(notify.TemplateNotifyAll)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"amy@x.com", "cat@x.com"}, sent[0].Bcc)
	assert.Equal(t, "Friday skate", sent[0].Locals["name"])
}

func TestBroadcastPublicWithoutRecipientsSendsNothing(t *testing.T) {
	g := testutil.PublicGame("host")
	f := newFixture([]*models.Game{g}, testutil.User("host", true))

	err := f.svc.Broadcast(context.Background(), g.ID.Hex(), models.Broadcast{})
	f.svc.Wait()

	require.NoError(t, err)
	assert.Empty(t, f.mailer.Emails())
}

func TestBroadcastUnknownGame(t *testing.T) {
	f := newFixture(nil)

	err := f.svc.Broadcast(context.Background(), primitive.NewObjectID().Hex(), models.Broadcast{})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateGameRejectsInvalidRoster(t *testing.T) {
	overfull := []string{"host", "amy", "bob"}
	twice := []string{"host", "amy", "amy"}
	withoutHost := []string{"amy"}
	blank := []string{"host", " "}
	two := 2
	one := 1
	newHost := "zed"

	tests := []struct {
		name  string
		patch models.GamePatch
	}{
		{"more players than capacity", models.GamePatch{Players: &overfull, MaxPlayers: &two}},
		{"duplicate player", models.GamePatch{Players: &twice}},
		{"host left off", models.GamePatch{Players: &withoutHost}},
		{"blank player", models.GamePatch{Players: &blank}},
		{"capacity below roster", models.GamePatch{MaxPlayers: &one}},
		{"host not rostered", models.GamePatch{Host: &newHost}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.PublicGame("host")
			g.Players = []string{"host", "amy"}
			f := newFixture([]*models.Game{g})

			_, err := f.svc.UpdateGame(context.Background(), g.ID.Hex(), tt.patch)
			f.svc.Wait()

			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, 0, f.games.Saves)
			assert.Equal(t, []string{"host", "amy"}, f.games.Get(g.ID).Players)
		})
	}
}

func TestUpdateGameDateMovesReminderAndPayouts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil, testutil.User("host", true), testutil.User("amy", true))
	game, err := f.svc.CreateGame(ctx, models.GameInput{
		Name: "Friday skate", Date: testutil.GameDate, Host: "host", MaxPlayers: 10,
		CostPerPlayer: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	_, err = f.svc.JoinPlayer(ctx, game.ID.Hex(), models.JoinRequest{Username: "amy", Email: "amy@x.com"})
	require.NoError(t, err)

	nextWeek := testutil.GameDate.Add(7 * 24 * time.Hour)
	_, err = f.svc.UpdateGame(ctx, game.ID.Hex(), models.GamePatch{Date: &nextWeek})
	f.svc.Wait()
	require.NoError(t, err)

	queued := f.queue.All()
	require.Len(t, queued, 1)
	assert.True(t, queued[0].SendDate.Equal(nextWeek.Add(-24*time.Hour)))

	payments := f.payments.All()
	require.Len(t, payments, 1)
	assert.True(t, payments[0].PayoutDate.Equal(nextWeek))
}

func TestUpdateGameDateLeavesRequestedPayouts(t *testing.T) {
	g := testutil.PublicGame("host")
	requestedAt := testutil.GameDate
	f := newFixture([]*models.Game{g})
	f.payments = testutil.NewPaymentStore(&models.Payment{GameID: g.ID, Payer: "amy", PayoutDate: g.Date, RequestedAt: &requestedAt})
	f.svc.payments = NewPaymentService(f.payments, f.users)

	later := g.Date.Add(48 * time.Hour)
	_, err := f.svc.UpdateGame(context.Background(), g.ID.Hex(), models.GamePatch{Date: &later})
	f.svc.Wait()

	require.NoError(t, err)
	assert.True(t, f.payments.All()[0].PayoutDate.Equal(g.Date))
}

func TestDropKeepsHostPaymentsFromOtherGamesWithSameName(t *testing.T) {
	ctx := context.Background()
	week1 := testutil.PublicGame("host")
	week2 := testutil.PublicGame("host")
	week2.Date = week1.Date.Add(7 * 24 * time.Hour)
	f := newFixture([]*models.Game{week1, week2}, testutil.User("host", true), testutil.User("amy", true))

	for _, g := range []*models.Game{week1, week2} {
		_, err := f.svc.JoinPlayer(ctx, g.ID.Hex(), models.JoinRequest{Username: "amy", Email: "amy@x.com"})
		require.NoError(t, err)
	}
	_, err := f.svc.DropPlayer(ctx, week2.ID.Hex(), "amy")
	f.svc.Wait()
	require.NoError(t, err)

	payments := f.payments.All()
	require.Len(t, payments, 1)
	assert.Equal(t, week1.ID, payments[0].GameID)

	host, err := f.users.GetByUsername(ctx, "host")
	require.NoError(t, err)
	require.Len(t, host.Profile.Payments, 1)
	assert.Equal(t, week1.ID, host.Profile.Payments[0].GameID)
}
