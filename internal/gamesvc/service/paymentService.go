package service

import (
	"context"
	"fmt"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentService keeps the records of fees owed to hosts. It does not move money.
type PaymentService struct {
	payments PaymentStore
	users    UserStore
}

func NewPaymentService(payments PaymentStore, users UserStore) *PaymentService {
	return &PaymentService{payments: payments, users: users}
}

// RecordJoin adds the fee of payer to the host profile and to the payment
// records. The two writes are independent; a failure of either is only logged.
func (s *PaymentService) RecordJoin(ctx context.Context, game *models.Game, payer string) {
	fields := log.Fields{"game_id": game.ID.Hex(), "host": game.Host, "payer": payer}

	sub := models.ProfilePayment{GameID: game.ID, Game: game.Name, From: payer, Amount: game.CostPerPlayer}
	if err := s.users.AddPayment(ctx, game.Host, sub); err != nil {
		log.WithError(err).WithFields(fields).Error("Error [PaymentService.RecordJoin] host profile payment")
	}

	p := &models.Payment{
		GameID:     game.ID,
		Payer:      payer,
		PayoutDate: game.Date,
		Amount:     game.CostPerPlayer,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		log.WithError(err).WithFields(fields).Error("Error [PaymentService.RecordJoin] payment record")
		return
	}
	log.WithFields(fields).WithField("amount", p.Amount.StringFixed(2)).Info("payment recorded")
}

// RetractDrop removes what RecordJoin wrote for a player who left before paying out.
func (s *PaymentService) RetractDrop(ctx context.Context, game *models.Game, payer string) {
	fields := log.Fields{"game_id": game.ID.Hex(), "host": game.Host, "payer": payer}

	n, err := s.payments.DeleteUnpaid(ctx, game.ID, payer)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Error [PaymentService.RetractDrop] payment record")
		return
	}
	if n == 0 {
		return
	}

	if err := s.users.RemovePayment(ctx, game.Host, game.ID, payer); err != nil {
		log.WithError(err).WithFields(fields).Error("Error [PaymentService.RetractDrop] host profile payment")
		return
	}
	log.WithFields(fields).WithField("records", n).Info("payment retracted")
}

// Reschedule moves the payout date of the game's pending payments to the game date.
func (s *PaymentService) Reschedule(ctx context.Context, game *models.Game) {
	n, err := s.payments.Reschedule(ctx, game.ID, game.Date)
	if err != nil {
		log.WithError(err).WithField("game_id", game.ID.Hex()).Error("Error [PaymentService.Reschedule] payment records")
		return
	}
	if n > 0 {
		log.WithFields(log.Fields{"game_id": game.ID.Hex(), "records": n, "payout_date": game.Date}).Info("payments rescheduled")
	}
}

// ListActive returns the payments still waiting for payout.
func (s *PaymentService) ListActive(ctx context.Context) ([]*models.Payment, error) {
	return s.payments.ListUnpaid(ctx)
}

// Settle marks payments paid once the payout processor confirms them.
func (s *PaymentService) Settle(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.ValidationFailed("paymentIds", "paymentIds is required")
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperror.ValidationFailed("paymentIds", fmt.Sprintf("invalid payment id %q", id))
		}
		oids = append(oids, oid)
	}

	n, err := s.payments.MarkPaid(ctx, oids)
	if err != nil {
		return 0, fmt.Errorf("settling payments: %w", err)
	}
	log.WithFields(log.Fields{"requested": len(oids), "settled": n}).Info("payments settled")
	return n, nil
}
