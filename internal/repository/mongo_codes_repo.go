package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tendant/simple-certify/internal/domain"
)

// MongoCodesRepository stores verification codes as documents keyed by identifier.
// Expired documents are not removed; a TTL index would turn Expired into NotFound.
type MongoCodesRepository struct {
	collection *mongo.Collection
}

// NewMongoCodesRepository creates a codes repository on the otps collection.
func NewMongoCodesRepository(db *mongo.Database) *MongoCodesRepository {
	return &MongoCodesRepository{collection: db.Collection(CollectionVerificationCodes)}
}

// Put replaces the document for the code's identifier.
func (r *MongoCodesRepository) Put(ctx context.Context, code *domain.VerificationCode) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": code.Identifier},
		code,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Get retrieves the code for an identifier.
func (r *MongoCodesRepository) Get(ctx context.Context, identifier string) (*domain.VerificationCode, error) {
	var code domain.VerificationCode
	err := r.collection.FindOne(ctx, bson.M{"_id": identifier}).Decode(&code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// MarkVerified flags the identifier's code as verified.
func (r *MongoCodesRepository) MarkVerified(ctx context.Context, identifier string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": identifier},
		bson.M{"$set": bson.M{"verified": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}
