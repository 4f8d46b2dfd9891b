package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tendant/simple-certify/internal/domain"
)

// VerificationCodesRepository stores verification codes in Postgres, one row per identifier.
type VerificationCodesRepository struct {
	db Querier
}

// NewVerificationCodesRepository creates a new verification codes repository.
func NewVerificationCodesRepository(db *sql.DB) *VerificationCodesRepository {
	return &VerificationCodesRepository{db: db}
}

// Put writes the code for its identifier, replacing any previous code.
func (r *VerificationCodesRepository) Put(ctx context.Context, code *domain.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (identifier, channel, code, expires_at, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identifier) DO UPDATE
		SET channel = EXCLUDED.channel,
		    code = EXCLUDED.code,
		    expires_at = EXCLUDED.expires_at,
		    verified = EXCLUDED.verified,
		    created_at = EXCLUDED.created_at
	`
	_, err := r.db.ExecContext(ctx, query,
		code.Identifier, code.Channel, code.Code, code.ExpiresAt, code.Verified, code.CreatedAt,
	)
	return err
}

// Get retrieves the code for an identifier.
func (r *VerificationCodesRepository) Get(ctx context.Context, identifier string) (*domain.VerificationCode, error) {
	query := `
		SELECT identifier, channel, code, expires_at, verified, created_at
		FROM verification_codes
		WHERE identifier = $1
	`
	code := &domain.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&code.Identifier, &code.Channel, &code.Code, &code.ExpiresAt, &code.Verified, &code.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

// MarkVerified flags the identifier's code as verified.
func (r *VerificationCodesRepository) MarkVerified(ctx context.Context, identifier string) error {
	query := `UPDATE verification_codes SET verified = true WHERE identifier = $1`
	result, err := r.db.ExecContext(ctx, query, identifier)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}
