package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultDBName = "hockeycompass"

// ConnectToDB opens a client for mongoURI, pings it and returns the database named in the URI path.
func ConnectToDB(ctx context.Context, mongoURI string) (*mongo.Database, error) {
	dbName, err := DatabaseName(mongoURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetRegistry(NewRegistry()))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return client.Database(dbName), nil
}

// Disconnect closes the client behind db.
func Disconnect(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		log.Errorf("Error disconnecting mongodb %s", err)
	}
}

// DatabaseName extracts the database from a connection string, falling back to the default.
func DatabaseName(mongoURI string) (string, error) {
	uri, err := url.Parse(mongoURI)
	if err != nil {
		return "", fmt.Errorf("parsing mongodb uri: %w", err)
	}

	if name := strings.TrimPrefix(uri.Path, "/"); name != "" {
		return name, nil
	}
	return defaultDBName, nil
}

// EnsureIndexes creates the unique and TTL indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "profile.notify", Value: 1}}},
	}
	if _, err := db.Collection(CollectionUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	payments := []mongo.IndexModel{
		{Keys: bson.D{{Key: "paid", Value: 1}, {Key: "payoutDate", Value: 1}}},
		{Keys: bson.D{{Key: "gameID", Value: 1}, {Key: "payer", Value: 1}}},
	}
	if _, err := db.Collection(CollectionPayments).Indexes().CreateMany(ctx, payments); err != nil {
		return fmt.Errorf("creating payment indexes: %w", err)
	}

	queue := mongo.IndexModel{Keys: bson.D{{Key: "sent", Value: 1}, {Key: "sendDate", Value: 1}}}
	if _, err := db.Collection(CollectionEmailQueue).Indexes().CreateOne(ctx, queue); err != nil {
		return fmt.Errorf("creating email queue index: %w", err)
	}

	return CreateTTLIndexForCollection(ctx, db, CollectionEmailQueue)
}

// CreateTTLIndexForCollection expires documents at their expires_at time.
func CreateTTLIndexForCollection(ctx context.Context, db *mongo.Database, collectionName string) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.M{"expires_at": 1},
		Options: options.Index().SetExpireAfterSeconds(0), // expire exactly at expires_at
	}

	if _, err := db.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("creating ttl index on %s: %w", collectionName, err)
	}
	return nil
}
