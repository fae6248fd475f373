package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GameStore struct {
	coll *mongo.Collection
}

func NewGameStore(database *mongo.Database) *GameStore {
	return &GameStore{coll: database.Collection(db.CollectionGames)}
}

func (s *GameStore) List(ctx context.Context) ([]*models.Game, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	games := []*models.Game{}
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("failed to decode games: %w", err)
	}
	return games, nil
}

func (s *GameStore) GetByID(ctx context.Context, id string) (*models.Game, error) {
	oid, err := parseID("game", id)
	if err != nil {
		return nil, err
	}

	game := &models.Game{}
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(game); err != nil {
		return nil, notFoundOr(err, "game", id)
	}
	return game, nil
}

func (s *GameStore) Create(ctx context.Context, game *models.Game) error {
	now := time.Now().UTC()
	game.CreatedAt = now
	game.UpdatedAt = now

	res, err := s.coll.InsertOne(ctx, game)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		game.ID = oid
	}
	return nil
}

// Save replaces the stored document with game. The write is last-writer-wins.
func (s *GameStore) Save(ctx context.Context, game *models.Game) error {
	game.UpdatedAt = time.Now().UTC()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": game.ID}, game)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("game", game.ID.Hex())
	}
	return nil
}

func (s *GameStore) Delete(ctx context.Context, id string) (*models.Game, error) {
	oid, err := parseID("game", id)
	if err != nil {
		return nil, err
	}

	game := &models.Game{}
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(game); err != nil {
		return nil, notFoundOr(err, "game", id)
	}
	return game, nil
}
