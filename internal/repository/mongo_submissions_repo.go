package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tendant/simple-certify/internal/domain"
)

type submissionDocument struct {
	ID                string `bson:"_id"`
	domain.Submission `bson:",inline"`
}

// MongoSubmissionsRepository stores feedback submissions as documents.
type MongoSubmissionsRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionsRepository creates a submissions repository on the submissions collection.
func NewMongoSubmissionsRepository(db *mongo.Database) *MongoSubmissionsRepository {
	return &MongoSubmissionsRepository{collection: db.Collection(CollectionSubmissions)}
}

// Create inserts a submission. An empty ID is filled with a new UUID.
func (r *MongoSubmissionsRepository) Create(ctx context.Context, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.collection.InsertOne(ctx, submissionDocument{ID: s.ID, Submission: *s})
	return err
}

// GetByID retrieves a submission by ID.
func (r *MongoSubmissionsRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	var doc submissionDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	s := doc.Submission
	s.ID = doc.ID
	return &s, nil
}
