package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PaymentStore struct {
	coll *mongo.Collection
}

func NewPaymentStore(database *mongo.Database) *PaymentStore {
	return &PaymentStore{coll: database.Collection(db.CollectionPayments)}
}

func (c *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	p.CreatedAt = time.Now().UTC()

	res, err := c.coll.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

// ListUnpaid returns every payment not yet settled, oldest payout first.
func (c *PaymentStore) ListUnpaid(ctx context.Context) ([]*models.Payment, error) {
	return c.find(ctx, bson.M{"paid": false, "voidedAt": bson.M{"$exists": false}})
}

// ListDue returns unpaid payments due by before that have not been requested for payout.
func (c *PaymentStore) ListDue(ctx context.Context, before time.Time) ([]*models.Payment, error) {
	return c.find(ctx, bson.M{
		"paid":        false,
		"payoutDate":  bson.M{"$lte": before},
		"requestedAt": bson.M{"$exists": false},
		"voidedAt":    bson.M{"$exists": false},
	})
}

// DeleteUnpaid removes the unsettled payments of payer for a game and returns how many went.
func (c *PaymentStore) DeleteUnpaid(ctx context.Context, gameID primitive.ObjectID, payer string) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, bson.M{"gameID": gameID, "payer": payer, "paid": false})
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	return res.DeletedCount, nil
}

func (c *PaymentStore) MarkRequested(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"requestedAt": at}})
	if err != nil {
		return fmt.Errorf("failed to mark payments requested: %w", err)
	}
	return nil
}

// Void takes payments out of the payout flow without deleting them.
func (c *PaymentStore) Void(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"voidedAt": at}})
	if err != nil {
		return fmt.Errorf("failed to void payments: %w", err)
	}
	return nil
}

// Reschedule moves the payout date of a game's payments that are still waiting
// to be requested.
func (c *PaymentStore) Reschedule(ctx context.Context, gameID primitive.ObjectID, payoutDate time.Time) (int64, error) {
	filter := bson.M{
		"gameID":      gameID,
		"paid":        false,
		"requestedAt": bson.M{"$exists": false},
		"voidedAt":    bson.M{"$exists": false},
	}
	res, err := c.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"payoutDate": payoutDate}})
	if err != nil {
		return 0, fmt.Errorf("failed to reschedule payments: %w", err)
	}
	return res.ModifiedCount, nil
}

// MarkPaid settles the given payments and returns how many were changed.
func (c *PaymentStore) MarkPaid(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := c.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "paid": false},
		bson.M{"$set": bson.M{"paid": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payments paid: %w", err)
	}
	return res.ModifiedCount, nil
}

func (c *PaymentStore) find(ctx context.Context, filter bson.M) ([]*models.Payment, error) {
	cursor, err := c.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "payoutDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}

	payments := []*models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}
