package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tendant/simple-certify/internal/domain"
)

// messageReader is the subset of *kafka.Reader used by KafkaSource.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the submission updates consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaSource consumes submission changes published as JSON
// {"submissionId", "before", "after"}. Offsets are committed after the
// handler returns, so delivery is at least once.
type KafkaSource struct {
	reader     messageReader
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewKafkaSource creates a consumer group reader for the topic.
func NewKafkaSource(cfg KafkaConfig, logger *slog.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka topic and group id are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	return &KafkaSource{reader: reader, logger: logger, retryDelay: time.Second}, nil
}

// Run fetches, handles and commits messages until ctx is canceled.
// Malformed messages are logged and committed.
func (s *KafkaSource) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("kafka fetch failed", "error", err)
			if !sleep(ctx, s.retryDelay) {
				return nil
			}
			continue
		}

		change, err := decodeKafkaChange(msg)
		if err != nil {
			s.logger.Error("skipping malformed submission change",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else {
			handle(ctx, change)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("kafka commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// Close closes the underlying reader.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

func decodeKafkaChange(msg kafka.Message) (domain.SubmissionChange, error) {
	var change domain.SubmissionChange
	if err := json.Unmarshal(msg.Value, &change); err != nil {
		return change, fmt.Errorf("decode message: %w", err)
	}
	if change.SubmissionID == "" {
		change.SubmissionID = string(msg.Key)
	}
	if change.SubmissionID == "" {
		return change, errors.New("message has no submission id")
	}
	if change.After == nil {
		return change, errors.New("message has no after image")
	}
	return change, nil
}
