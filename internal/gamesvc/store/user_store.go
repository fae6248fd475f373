package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/db"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(database *mongo.Database) *UserStore {
	return &UserStore{coll: database.Collection(db.CollectionUsers)}
}

func (r *UserStore) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("username or email already in use")
		}
		return fmt.Errorf("could not create user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(u); err != nil {
		return nil, notFoundOr(err, "user", username)
	}
	return u, nil
}

func (r *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u := &models.User{}
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(u); err != nil {
		return nil, notFoundOr(err, "user", email)
	}
	return u, nil
}

// FindByUsernames returns the users matching any of usernames, in no particular order.
func (r *UserStore) FindByUsernames(ctx context.Context, usernames []string) ([]*models.User, error) {
	if len(usernames) == 0 {
		return []*models.User{}, nil
	}
	return r.find(ctx, bson.M{"username": bson.M{"$in": usernames}})
}

// ListNotifiable returns the users that opted in to game announcements.
func (r *UserStore) ListNotifiable(ctx context.Context) ([]*models.User, error) {
	return r.find(ctx, bson.M{"profile.notify": true})
}

func (r *UserStore) Save(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("username or email already in use")
		}
		return fmt.Errorf("could not save user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", user.Username)
	}
	return nil
}

// AddPayment pushes a payment sub-record onto the user's profile.
func (r *UserStore) AddPayment(ctx context.Context, username string, p models.ProfilePayment) error {
	update := bson.M{
		"$push": bson.M{"profile.payments": p},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, username, update)
}

// RemovePayment pulls the profile payment sub-records of payer for one game.
func (r *UserStore) RemovePayment(ctx context.Context, username string, gameID primitive.ObjectID, from string) error {
	update := bson.M{
		"$pull": bson.M{"profile.payments": bson.M{"gameID": gameID, "from": from}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, username, update)
}

func (r *UserStore) IncrementLoginCount(ctx context.Context, username string) error {
	update := bson.M{
		"$inc": bson.M{"metrics.loginCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, username, update)
}

func (r *UserStore) updateOne(ctx context.Context, username string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("could not update user %s: %w", username, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", username)
	}
	return nil
}

func (r *UserStore) find(ctx context.Context, filter bson.M) ([]*models.User, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("could not query users: %w", err)
	}

	users := []*models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("could not decode users: %w", err)
	}
	return users, nil
}
