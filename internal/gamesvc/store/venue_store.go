package store

import (
	"context"
	"fmt"

	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VenueStore struct {
	coll *mongo.Collection
}

func NewVenueStore(database *mongo.Database) *VenueStore {
	return &VenueStore{coll: database.Collection(db.CollectionVenues)}
}

func (s *VenueStore) List(ctx context.Context) ([]*models.Venue, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}

	venues := []*models.Venue{}
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("failed to decode venues: %w", err)
	}
	return venues, nil
}

func (s *VenueStore) Create(ctx context.Context, v *models.Venue) error {
	res, err := s.coll.InsertOne(ctx, v)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		v.ID = oid
	}
	return nil
}
