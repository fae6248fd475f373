// Package alert posts operator notices to Telegram chats.
package alert

import (
	"context"
	"fmt"

	"github.com/avvvet/pickup-services/internal/comm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier handles sending notifications to multiple chats
type TelegramNotifier struct {
	bot     sender
	chatIDs []int64
}

// NewTelegramNotifier returns nil, nil when no token or chats are configured.
func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	if botToken == "" || len(chatIDs) == 0 {
		log.Warn("telegram alerts disabled, token or chat ids not set")
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Infof("Telegram notifier initialized with %d chat IDs", len(chatIDs))
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// SendNotification sends message to every configured chat. A nil notifier does nothing.
func (tn *TelegramNotifier) SendNotification(message string) {
	if tn == nil || tn.bot == nil {
		return
	}

	for _, chatID := range tn.chatIDs {
		if _, err := tn.bot.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
			log.Errorf("Failed to send telegram message to chat %d: %v", chatID, err)
		}
	}
}

type PayoutRequester interface {
	RequestPayout(ctx context.Context, req comm.PayoutRequest) error
}

// PayoutAlerts tells the operators about every payout request that went out.
type PayoutAlerts struct {
	next     PayoutRequester
	notifier *TelegramNotifier
}

func NewPayoutAlerts(next PayoutRequester, notifier *TelegramNotifier) *PayoutAlerts {
	return &PayoutAlerts{next: next, notifier: notifier}
}

func (a *PayoutAlerts) RequestPayout(ctx context.Context, req comm.PayoutRequest) error {
	if err := a.next.RequestPayout(ctx, req); err != nil {
		return err
	}
	a.notifier.SendNotification(FormatPayout(req))
	return nil
}

func FormatPayout(req comm.PayoutRequest) string {
	return fmt.Sprintf("Payout requested\nGame: %s (%s)\nHost: %s <%s>\nAmount: $%s for %d players\nDue: %s",
		req.GameName, req.GameID, req.Host, req.PayoutsEmail,
		req.Amount.StringFixed(2), len(req.PaymentIDs), req.PayoutDate.Format("2006-01-02"))
}
