// Package dispatch emails participants when their certificate link is published.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/tendant/simple-certify/internal/domain"
)

// LinkMailer sends the certificate-ready notification.
type LinkMailer interface {
	SendCertificateLink(ctx context.Context, to, name, url string) error
}

// Outcome is what Handle did with a change.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSent    Outcome = "sent"
	OutcomeFailed  Outcome = "failed"
)

// Dispatcher reacts to submission updates.
type Dispatcher struct {
	mailer LinkMailer
	logger *slog.Logger
}

// New creates a dispatcher.
func New(mailer LinkMailer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{mailer: mailer, logger: logger}
}

// Handle sends one notification when the change first populates the
// certificate link. Send failures are logged and reported in the outcome,
// never returned. A redelivered change may notify twice.
func (d *Dispatcher) Handle(ctx context.Context, change domain.SubmissionChange) Outcome {
	if change.After == nil {
		d.logger.Error("submission change without after image", "submission_id", change.SubmissionID)
		return OutcomeSkipped
	}
	if change.Before == nil {
		d.logger.Warn("submission change without before image, cannot detect transition", "submission_id", change.SubmissionID)
		return OutcomeSkipped
	}
	if !change.CertificateLinkAdded() {
		d.logger.Debug("no new certificate URL, email not sent", "submission_id", change.SubmissionID)
		return OutcomeSkipped
	}

	after := change.After
	if after.Email == "" {
		d.logger.Warn("certificate URL added but submission has no email", "submission_id", change.SubmissionID)
		return OutcomeSkipped
	}

	if err := d.mailer.SendCertificateLink(ctx, after.Email, after.Name, after.CertificateURL); err != nil {
		d.logger.Error("failed to send certificate email",
			"submission_id", change.SubmissionID,
			"email", after.Email,
			"error", err,
		)
		return OutcomeFailed
	}

	d.logger.Info("certificate email sent", "submission_id", change.SubmissionID, "email", after.Email)
	return OutcomeSent
}
