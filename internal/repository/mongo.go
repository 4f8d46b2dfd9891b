package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	CollectionVerificationCodes = "otps"
	CollectionSubmissions       = "submissions"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// NewMongoDatabase connects to MongoDB, pings it and returns the configured database.
func NewMongoDatabase(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx,
		options.Client().ApplyURI(cfg.URI),
		options.Client().SetTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(cfg.Database), nil
}

// EnableSubmissionPreImages turns on change stream pre-images for the
// submissions collection so change events carry the document as it was
// before the update. Requires MongoDB 6.0 or newer.
func EnableSubmissionPreImages(ctx context.Context, db *mongo.Database) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": CollectionSubmissions})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		opts := options.CreateCollection().SetChangeStreamPreAndPostImages(bson.M{"enabled": true})
		return db.CreateCollection(ctx, CollectionSubmissions, opts)
	}
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: CollectionSubmissions},
		{Key: "changeStreamPreAndPostImages", Value: bson.M{"enabled": true}},
	}).Err()
}
