package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/repository"
)

// ErrMissingPreImage is returned for update events that carry no
// fullDocumentBeforeChange.
var ErrMissingPreImage = errors.New("change event has no pre-image")

// MongoSource watches the submissions collection with a change stream.
// Pre-images must be enabled on the collection; events without one are skipped.
type MongoSource struct {
	collection *mongo.Collection
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewMongoSource creates a change stream source on the submissions collection.
func NewMongoSource(db *mongo.Database, logger *slog.Logger) *MongoSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoSource{
		collection: db.Collection(repository.CollectionSubmissions),
		logger:     logger,
		retryDelay: 5 * time.Second,
	}
}

type mongoChangeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID bson.RawValue `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument             *domain.Submission `bson:"fullDocument"`
	FullDocumentBeforeChange *domain.Submission `bson:"fullDocumentBeforeChange"`
}

// Run watches for updates and replacements, resuming after the last
// processed event when the stream breaks.
func (s *MongoSource) Run(ctx context.Context, handle HandlerFunc) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"update", "replace"}}}},
		}}},
	}

	var resumeToken bson.Raw
	for {
		opts := options.ChangeStream().
			SetFullDocument(options.UpdateLookup).
			SetFullDocumentBeforeChange(options.WhenAvailable)
		if resumeToken != nil {
			opts.SetResumeAfter(resumeToken)
		}

		stream, err := s.collection.Watch(ctx, pipeline, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("failed to open change stream", "error", err)
			if !sleep(ctx, s.retryDelay) {
				return nil
			}
			continue
		}

		for stream.Next(ctx) {
			change, err := decodeMongoEvent(stream.Current)
			switch {
			case errors.Is(err, ErrMissingPreImage):
				s.logger.Warn("skipping change without pre-image, check changeStreamPreAndPostImages on submissions",
					"submission_id", change.SubmissionID)
			case err != nil:
				s.logger.Error("skipping malformed change event", "error", err)
			default:
				handle(ctx, change)
			}
			resumeToken = stream.ResumeToken()
		}
		err = stream.Err()
		_ = stream.Close(context.Background())

		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("change stream interrupted, resuming", "error", err)
		if !sleep(ctx, s.retryDelay) {
			return nil
		}
	}
}

func decodeMongoEvent(raw bson.Raw) (domain.SubmissionChange, error) {
	var ev mongoChangeEvent
	if err := bson.Unmarshal(raw, &ev); err != nil {
		return domain.SubmissionChange{}, fmt.Errorf("decode change event: %w", err)
	}

	id, err := documentID(ev.DocumentKey.ID)
	if err != nil {
		return domain.SubmissionChange{}, err
	}

	change := domain.SubmissionChange{
		SubmissionID: id,
		Before:       ev.FullDocumentBeforeChange,
		After:        ev.FullDocument,
	}
	if change.Before == nil {
		return change, ErrMissingPreImage
	}
	change.Before.ID = id
	if change.After != nil {
		change.After.ID = id
	}
	return change, nil
}

func documentID(v bson.RawValue) (string, error) {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex(), nil
	}
	if s, ok := v.StringValueOK(); ok {
		return s, nil
	}
	return "", errors.New("change event has no usable document key")
}
