package service

import (
	"context"
	"time"

	"github.com/avvvet/pickup-services/internal/comm"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The store contracts below are satisfied by the mongo stores in package store.

type GameStore interface {
	List(ctx context.Context) ([]*models.Game, error)
	GetByID(ctx context.Context, id string) (*models.Game, error)
	Create(ctx context.Context, game *models.Game) error
	Save(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id string) (*models.Game, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernames(ctx context.Context, usernames []string) ([]*models.User, error)
	ListNotifiable(ctx context.Context) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) error
	AddPayment(ctx context.Context, username string, p models.ProfilePayment) error
	RemovePayment(ctx context.Context, username string, gameID primitive.ObjectID, from string) error
	IncrementLoginCount(ctx context.Context, username string) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	ListUnpaid(ctx context.Context) ([]*models.Payment, error)
	ListDue(ctx context.Context, before time.Time) ([]*models.Payment, error)
	DeleteUnpaid(ctx context.Context, gameID primitive.ObjectID, payer string) (int64, error)
	MarkRequested(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	MarkPaid(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	Void(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	Reschedule(ctx context.Context, gameID primitive.ObjectID, payoutDate time.Time) (int64, error)
}

type EmailQueueStore interface {
	Enqueue(ctx context.Context, e *models.EmailQueue) error
	ListDue(ctx context.Context, now time.Time) ([]*models.EmailQueue, error)
	MarkSent(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Reschedule(ctx context.Context, gameID primitive.ObjectID, sendDate time.Time) (int64, error)
}

type VenueStore interface {
	List(ctx context.Context) ([]*models.Venue, error)
	Create(ctx context.Context, v *models.Venue) error
}

// Mailer hands an e-mail to the notification dispatcher.
type Mailer interface {
	SendEmail(ctx context.Context, msg comm.Email) error
}

type EventPublisher interface {
	PublishGameEvent(ctx context.Context, eventType string, game *models.Game, username string) error
}

type PayoutRequester interface {
	RequestPayout(ctx context.Context, req comm.PayoutRequest) error
}
