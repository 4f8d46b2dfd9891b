package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/simple-certify/internal/domain"
)

// ErrSubmissionNotFound is returned when no submission has the requested ID.
var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionsRepository stores feedback submissions in Postgres.
type SubmissionsRepository struct {
	db Querier
}

// NewSubmissionsRepository creates a new submissions repository.
func NewSubmissionsRepository(db *sql.DB) *SubmissionsRepository {
	return &SubmissionsRepository{db: db}
}

// Create inserts a submission. An empty ID is filled with a new UUID.
func (r *SubmissionsRepository) Create(ctx context.Context, s *domain.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	query := `
		INSERT INTO submissions (id, workshop_id, name, course, email, phone, feedback, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.WorkshopID, s.Name, s.Course, s.Email, s.Phone, s.Feedback, s.SubmittedAt,
	)
	return err
}

// GetByID retrieves a submission by ID.
func (r *SubmissionsRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `
		SELECT id, workshop_id, name, course, email, phone, feedback,
		       COALESCE(certificate_url, ''), submitted_at
		FROM submissions
		WHERE id = $1
	`
	s := &domain.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.WorkshopID, &s.Name, &s.Course, &s.Email, &s.Phone, &s.Feedback,
		&s.CertificateURL, &s.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
