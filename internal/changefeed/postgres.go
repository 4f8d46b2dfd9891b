package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/tendant/simple-certify/internal/domain"
)

// NotifyChannel is the LISTEN channel the submissions update trigger publishes on.
const NotifyChannel = "submission_updates"

// SubmissionGetter loads the current state of a submission.
type SubmissionGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
}

// PostgresSource listens for submission update notifications.
type PostgresSource struct {
	dsn          string
	submissions  SubmissionGetter
	logger       *slog.Logger
	pingInterval time.Duration
}

// NewPostgresSource creates a LISTEN/NOTIFY source. dsn is any connection
// string lib/pq accepts.
func NewPostgresSource(dsn string, submissions SubmissionGetter, logger *slog.Logger) *PostgresSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSource{
		dsn:          dsn,
		submissions:  submissions,
		logger:       logger,
		pingInterval: 90 * time.Second,
	}
}

type notifyPayload struct {
	ID                   string  `json:"id"`
	BeforeCertificateURL *string `json:"before_certificate_url"`
	AfterCertificateURL  *string `json:"after_certificate_url"`
}

// Run listens until ctx is canceled. Notifications sent while the
// listener is reconnecting are lost.
func (s *PostgresSource) Run(ctx context.Context, handle HandlerFunc) error {
	listener := pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Error("postgres listener event", "event", ev, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(NotifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	s.logger.Info("listening for submission updates", "channel", NotifyChannel)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				s.logger.Warn("postgres listener reconnected, updates may have been missed")
				continue
			}
			change, err := s.changeFor(ctx, n.Extra)
			if err != nil {
				s.logger.Error("skipping submission notification", "payload", n.Extra, "error", err)
				continue
			}
			handle(ctx, change)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					s.logger.Warn("postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}

func decodeNotification(payload string) (notifyPayload, error) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return p, fmt.Errorf("decode notification: %w", err)
	}
	if p.ID == "" {
		return p, errors.New("notification has no submission id")
	}
	return p, nil
}

// changeFor builds the change from the trigger payload and the current row.
// The certificate URLs come from the payload so a later write cannot hide
// the transition.
func (s *PostgresSource) changeFor(ctx context.Context, payload string) (domain.SubmissionChange, error) {
	p, err := decodeNotification(payload)
	if err != nil {
		return domain.SubmissionChange{}, err
	}

	current, err := s.submissions.GetByID(ctx, p.ID)
	if err != nil {
		return domain.SubmissionChange{}, fmt.Errorf("load submission %s: %w", p.ID, err)
	}

	after := *current
	after.CertificateURL = deref(p.AfterCertificateURL)
	before := *current
	before.CertificateURL = deref(p.BeforeCertificateURL)

	return domain.SubmissionChange{SubmissionID: p.ID, Before: &before, After: &after}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
