package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avvvet/pickup-services/internal/comm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	chats []int64
	texts []string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	b.chats = append(b.chats, msg.ChatID)
	b.texts = append(b.texts, msg.Text)
	return tgbotapi.Message{}, nil
}

type fakeRequester struct {
	err error
}

func (f *fakeRequester) RequestPayout(ctx context.Context, req comm.PayoutRequest) error {
	return f.err
}

func testRequest() comm.PayoutRequest {
	return comm.PayoutRequest{
		GameID:       "abc",
		GameName:     "Friday skate",
		Host:         "host",
		PayoutsEmail: "pay@x.com",
		Amount:       decimal.RequireFromString("11"),
		PaymentIDs:   []string{"1", "2"},
		PayoutDate:   time.Date(2026, 11, 6, 2, 30, 0, 0, time.UTC),
	}
}

func TestFormatPayout(t *testing.T) {
	text := FormatPayout(testRequest())

	assert.Contains(t, text, "Friday skate (abc)")
	assert.Contains(t, text, "$11.00 for 2 players")
	assert.Contains(t, text, "2026-11-06")
}

func TestPayoutAlertsNotifyEveryChat(t *testing.T) {
	bot := &fakeBot{}
	a := NewPayoutAlerts(&fakeRequester{}, &TelegramNotifier{bot: bot, chatIDs: []int64{1, 2}})

	require.NoError(t, a.RequestPayout(context.Background(), testRequest()))

	assert.Equal(t, []int64{1, 2}, bot.chats)
}

func TestPayoutAlertsSkipFailedRequests(t *testing.T) {
	bot := &fakeBot{}
	boom := errors.New("nats down")
	a := NewPayoutAlerts(&fakeRequester{err: boom}, &TelegramNotifier{bot: bot, chatIDs: []int64{1}})

	assert.ErrorIs(t, a.RequestPayout(context.Background(), testRequest()), boom)
	assert.Empty(t, bot.chats)
}

func TestDisabledNotifier(t *testing.T) {
	n, err := NewTelegramNotifier("", nil)
	require.NoError(t, err)
	assert.Nil(t, n)

	a := NewPayoutAlerts(&fakeRequester{}, n)
	assert.NoError(t, a.RequestPayout(context.Background(), testRequest()))
}
