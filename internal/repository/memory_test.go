package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tendant/simple-certify/internal/domain"
)

func TestMemoryCodeStore_PutGet(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	expiresAt := time.Now().UTC().Add(10 * time.Minute)

	err := store.Put(ctx, &domain.VerificationCode{
		Identifier: "jane@example.com",
		Channel:    domain.ChannelEmail,
		Code:       "123456",
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	code, err := store.Get(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code.Code != "123456" {
		t.Errorf("Code = %q, want %q", code.Code, "123456")
	}
	if code.Verified {
		t.Error("Verified should be false after Put")
	}
}

func TestMemoryCodeStore_GetMissing(t *testing.T) {
	store := NewMemoryCodeStore()

	_, err := store.Get(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrCodeNotFound) {
		t.Errorf("err = %v, want ErrCodeNotFound", err)
	}
}

func TestMemoryCodeStore_PutOverwrites(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	store.Put(ctx, &domain.VerificationCode{Identifier: "+15550001111", Code: "111111", Verified: true})
	store.Put(ctx, &domain.VerificationCode{Identifier: "+15550001111", Code: "222222"})

	code, err := store.Get(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if code.Code != "222222" {
		t.Errorf("Code = %q, want %q", code.Code, "222222")
	}
	if code.Verified {
		t.Error("a new issuance should reset Verified")
	}
}

func TestMemoryCodeStore_MarkVerified(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	if err := store.MarkVerified(ctx, "jane@example.com"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Errorf("MarkVerified on missing = %v, want ErrCodeNotFound", err)
	}

	store.Put(ctx, &domain.VerificationCode{Identifier: "jane@example.com", Code: "123456"})
	if err := store.MarkVerified(ctx, "jane@example.com"); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}

	code, _ := store.Get(ctx, "jane@example.com")
	if !code.Verified {
		t.Error("Verified should be true after MarkVerified")
	}
}

func TestMemoryCodeStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()
	store.Put(ctx, &domain.VerificationCode{Identifier: "jane@example.com", Code: "123456"})

	code, _ := store.Get(ctx, "jane@example.com")
	code.Verified = true

	again, _ := store.Get(ctx, "jane@example.com")
	if again.Verified {
		t.Error("mutating a returned code should not change the store")
	}
}

func TestMemoryCodeStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryCodeStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Put(ctx, &domain.VerificationCode{Identifier: "jane@example.com", Code: "123456"})
		}()
		go func() {
			defer wg.Done()
			store.Get(ctx, "jane@example.com")
		}()
	}
	wg.Wait()
}

func TestMemorySubmissionStore_CreateAssignsID(t *testing.T) {
	store := NewMemorySubmissionStore()
	ctx := context.Background()

	sub := &domain.Submission{WorkshopID: "ws-1", Name: "Jane Doe", Email: "jane@example.com"}
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := store.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Jane Doe" {
		t.Errorf("Name = %q, want %q", got.Name, "Jane Doe")
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("GetByID missing = %v, want ErrSubmissionNotFound", err)
	}
}
