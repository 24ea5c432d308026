package mongo

import (
	"context"
	"fmt"
	"log"
	"time"

	"metrix-portal/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names are part of the effective schema contract.
var Collections = struct {
	Users           string
	Meters          string
	ServiceRequests string
	Logs            string
}{
	Users:           "users",
	Meters:          "meters",
	ServiceRequests: "service_requests",
	Logs:            "logs",
}

// Connect establishes the document store connection and returns the
// portal database handle.
func Connect(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(50).
		SetMinPoolSize(5)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	log.Printf("Connected to MongoDB at %s, database %s", cfg.URI, cfg.Database)

	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// ensureIndexes creates the store-native uniqueness backstop for cabinet
// attachments. The application still runs its own duplicate check first so
// the user sees a specific "already attached" error; this index closes the
// check-then-act race between concurrent sessions.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(Collections.Meters).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "serial", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create meters unique index: %w", err)
	}
	return nil
}

// Disconnect closes the client behind a database handle.
func Disconnect(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting MongoDB: %v", err)
	}
}
