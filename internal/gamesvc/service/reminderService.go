package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/avvvet/pickup-services/internal/gamesvc/notify"
	log "github.com/sirupsen/logrus"
)

// ReminderService works through the e-mail queue filled when public games are created.
type ReminderService struct {
	queue  EmailQueueStore
	games  GameStore
	users  UserStore
	mailer Mailer
	policy *notify.Policy
}

func NewReminderService(queue EmailQueueStore, games GameStore, users UserStore, mailer Mailer, policy *notify.Policy) *ReminderService {
	return &ReminderService{queue: queue, games: games, users: users, mailer: mailer, policy: policy}
}

// SendDue mails the reminders due at now and returns how many were sent.
// Entries that fail to send stay queued for the next sweep.
func (s *ReminderService) SendDue(ctx context.Context, now time.Time) (int, error) {
	entries, err := s.queue.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("loading due reminders: %w", err)
	}

	sent := 0
	for _, e := range entries {
		fields := log.Fields{"entry_id": e.ID.Hex(), "game_id": e.GameID.Hex()}

		game, err := s.games.GetByID(ctx, e.GameID.Hex())
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			log.WithError(err).WithFields(fields).Error("Error [ReminderService.SendDue] game lookup")
			continue
		}

		if game != nil && game.Active {
			if err := s.remind(ctx, game); err != nil {
				log.WithError(err).WithFields(fields).Error("Error [ReminderService.SendDue] sending reminder")
				continue
			}
			sent++
		}

		if err := s.queue.MarkSent(ctx, e.ID, now); err != nil {
			log.WithError(err).WithFields(fields).Error("Error [ReminderService.SendDue] marking sent")
		}
	}
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, game *models.Game) error {
	users, err := s.users.FindByUsernames(ctx, game.Players)
	if err != nil {
		return fmt.Errorf("roster lookup: %w", err)
	}

	emails, _ := notify.RosterEmails(users, game.Players)
	if len(emails) == 0 {
		return nil
	}
	return s.mailer.SendEmail(ctx, s.policy.GameReminder(game, emails))
}
