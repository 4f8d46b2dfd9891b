package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-certify/internal/domain"
)

func testPostgres(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping repository test - requires TEST_DATABASE_URL")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestVerificationCodesRepository_Structure(t *testing.T) {
	repo := NewVerificationCodesRepository(nil)
	if repo == nil {
		t.Fatal("NewVerificationCodesRepository should not return nil")
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 25432, User: "postgres", Password: "pw", DBName: "certify", SSLMode: "disable"}
	want := "host=localhost port=25432 user=postgres password=pw dbname=certify sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestVerificationCodesRepository_Lifecycle(t *testing.T) {
	repo := NewVerificationCodesRepository(testPostgres(t))
	ctx := context.Background()
	identifier := "+1555" + uuid.NewString()[:7]

	if err := repo.MarkVerified(ctx, identifier); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("MarkVerified before Put = %v, want ErrCodeNotFound", err)
	}

	now := time.Now().UTC()
	if err := repo.Put(ctx, &domain.VerificationCode{Identifier: identifier, Channel: domain.ChannelSMS, Code: "111111", ExpiresAt: now.Add(time.Minute), CreatedAt: now}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.MarkVerified(ctx, identifier); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	if err := repo.Put(ctx, &domain.VerificationCode{Identifier: identifier, Channel: domain.ChannelSMS, Code: "222222", ExpiresAt: now.Add(time.Minute), CreatedAt: now}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := repo.Get(ctx, identifier)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "222222" || got.Verified {
		t.Errorf("got code=%q verified=%v, want 222222/false", got.Code, got.Verified)
	}
}

func TestSubmissionsRepository_CreateGet(t *testing.T) {
	repo := NewSubmissionsRepository(testPostgres(t))
	ctx := context.Background()

	sub := &domain.Submission{
		WorkshopID:  "ws-1",
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "+15550001111",
		SubmittedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CertificateURL != "" {
		t.Errorf("CertificateURL = %q, want empty", got.CertificateURL)
	}
	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("GetByID missing = %v, want ErrSubmissionNotFound", err)
	}
}
