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

// sent reminders are kept this long before the TTL index removes them
const sentRetention = 30 * 24 * time.Hour

type EmailQueueStore struct {
	coll *mongo.Collection
}

func NewEmailQueueStore(database *mongo.Database) *EmailQueueStore {
	return &EmailQueueStore{coll: database.Collection(db.CollectionEmailQueue)}
}

func (s *EmailQueueStore) Enqueue(ctx context.Context, e *models.EmailQueue) error {
	e.CreatedAt = time.Now().UTC()

	res, err := s.coll.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to enqueue email: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid
	}
	return nil
}

// ListDue returns unsent entries whose send date is at or before now.
func (s *EmailQueueStore) ListDue(ctx context.Context, now time.Time) ([]*models.EmailQueue, error) {
	filter := bson.M{"sent": false, "sendDate": bson.M{"$lte": now}}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "sendDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query email queue: %w", err)
	}

	entries := []*models.EmailQueue{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode email queue: %w", err)
	}
	return entries, nil
}

func (s *EmailQueueStore) MarkSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	expires := at.Add(sentRetention)
	update := bson.M{"$set": bson.M{"sent": true, "sentAt": at, "expires_at": expires}}

	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("failed to mark email %s sent: %w", id.Hex(), err)
	}
	return nil
}

// Reschedule moves the unsent reminders of a game to sendDate.
func (s *EmailQueueStore) Reschedule(ctx context.Context, gameID primitive.ObjectID, sendDate time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"gameID": gameID, "sent": false},
		bson.M{"$set": bson.M{"sendDate": sendDate}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reschedule reminders: %w", err)
	}
	return res.MatchedCount, nil
}
