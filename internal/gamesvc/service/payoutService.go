package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayoutService asks the external payout processor to pay hosts for games
// that have been played. Settlement comes back through PaymentService.Settle.
type PayoutService struct {
	payments  PaymentStore
	games     GameStore
	users     UserStore
	requester PayoutRequester
}

func NewPayoutService(payments PaymentStore, games GameStore, users UserStore, requester PayoutRequester) *PayoutService {
	return &PayoutService{payments: payments, games: games, users: users, requester: requester}
}

// RequestDue sends one payout request per game with due payments and returns
// how many requests went out. Payments of cancelled or deleted games are voided.
func (s *PayoutService) RequestDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.payments.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("loading due payments: %w", err)
	}

	requested := 0
	for _, group := range groupByGame(due) {
		fields := log.Fields{"game_id": group[0].GameID.Hex(), "payments": len(group)}

		game, err := s.games.GetByID(ctx, group[0].GameID.Hex())
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			s.void(ctx, group, now, fields, "game deleted")
			continue
		case err != nil:
			log.WithError(err).WithFields(fields).Error("Error [PayoutService.RequestDue] game lookup")
			continue
		case !game.Active:
			s.void(ctx, group, now, fields, "game cancelled")
			continue
		}

		req, err := s.buildRequest(ctx, game, group)
		if err != nil {
			log.WithError(err).WithFields(fields).Error("Error [PayoutService.RequestDue] building request")
			continue
		}

		if err := s.requester.RequestPayout(ctx, req); err != nil {
			log.WithError(err).WithFields(fields).Error("Error [PayoutService.RequestDue] publishing request")
			continue
		}

		if err := s.payments.MarkRequested(ctx, paymentIDs(group), now); err != nil {
			log.WithError(err).WithFields(fields).Error("Error [PayoutService.RequestDue] marking requested")
			continue
		}

		log.WithFields(fields).WithField("amount", req.Amount.StringFixed(2)).Info("payout requested")
		requested++
	}
	return requested, nil
}

func (s *PayoutService) void(ctx context.Context, group []*models.Payment, now time.Time, fields log.Fields, reason string) {
	if err := s.payments.Void(ctx, paymentIDs(group), now); err != nil {
		log.WithError(err).WithFields(fields).Error("Error [PayoutService.RequestDue] voiding payments")
		return
	}
	log.WithFields(fields).WithField("reason", reason).Warn("payments voided")
}

func (s *PayoutService) buildRequest(ctx context.Context, game *models.Game, group []*models.Payment) (comm.PayoutRequest, error) {
	host, err := s.users.GetByUsername(ctx, game.Host)
	if err != nil {
		return comm.PayoutRequest{}, fmt.Errorf("host lookup: %w", err)
	}

	payTo := host.Profile.PayoutsEmail
	if payTo == "" {
		payTo = host.Email
	}

	total := decimal.Zero
	ids := make([]string, 0, len(group))
	for _, p := range group {
		total = total.Add(p.Amount)
		ids = append(ids, p.ID.Hex())
	}

	return comm.PayoutRequest{
		GameID:       game.ID.Hex(),
		GameName:     game.Name,
		Host:         game.Host,
		PayoutsEmail: payTo,
		Amount:       total,
		PaymentIDs:   ids,
		PayoutDate:   group[0].PayoutDate,
	}, nil
}

// groupByGame keeps the order in which games first appear.
func groupByGame(payments []*models.Payment) [][]*models.Payment {
	index := map[primitive.ObjectID]int{}
	var groups [][]*models.Payment

	for _, p := range payments {
		i, ok := index[p.GameID]
		if !ok {
			i = len(groups)
			index[p.GameID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}

func paymentIDs(group []*models.Payment) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(group))
	for _, p := range group {
		ids = append(ids, p.ID)
	}
	return ids
}
