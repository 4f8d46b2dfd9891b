package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-certify/internal/domain"
)

// MemoryCodeStore is an in-process code store for development and tests.
// State is lost on restart and not shared between replicas.
type MemoryCodeStore struct {
	mu    sync.RWMutex
	codes map[string]domain.VerificationCode
}

// NewMemoryCodeStore returns an empty in-memory code store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]domain.VerificationCode)}
}

// Put replaces the code for its identifier.
func (s *MemoryCodeStore) Put(ctx context.Context, code *domain.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Identifier] = *code
	return nil
}

// Get returns a copy of the stored code.
func (s *MemoryCodeStore) Get(ctx context.Context, identifier string) (*domain.VerificationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.codes[identifier]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return &code, nil
}

// MarkVerified flags the identifier's code as verified.
func (s *MemoryCodeStore) MarkVerified(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[identifier]
	if !ok {
		return domain.ErrCodeNotFound
	}
	code.Verified = true
	s.codes[identifier] = code
	return nil
}

// MemorySubmissionStore is an in-process submission store for development and tests.
type MemorySubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
}

// NewMemorySubmissionStore returns an empty in-memory submission store.
func NewMemorySubmissionStore() *MemorySubmissionStore {
	return &MemorySubmissionStore{submissions: make(map[string]domain.Submission)}
}

// Create stores a submission. An empty ID is filled with a new UUID.
func (s *MemorySubmissionStore) Create(ctx context.Context, sub *domain.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = *sub
	return nil
}

// GetByID returns a copy of the stored submission.
func (s *MemorySubmissionStore) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return &sub, nil
}
