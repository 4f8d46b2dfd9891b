// Package otp issues and verifies one-time verification codes delivered by
// email or SMS.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/tendant/simple-certify/internal/domain"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// CodeStore persists one verification code per identifier.
type CodeStore interface {
	Put(ctx context.Context, code *domain.VerificationCode) error
	Get(ctx context.Context, identifier string) (*domain.VerificationCode, error)
	MarkVerified(ctx context.Context, identifier string) error
}

// Sender delivers a code to an address on one channel.
type Sender interface {
	SendCode(ctx context.Context, to, code string, expiresIn time.Duration) error
}

// Config holds OTP service configuration.
type Config struct {
	TTL time.Duration
	// PhoneRegion is the region for phone numbers given without a country code.
	PhoneRegion string
}

// Service issues and verifies codes.
type Service struct {
	config   Config
	store    CodeStore
	senders  map[domain.Channel]Sender
	logger   *slog.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewService creates an OTP service. Channels without a sender cannot issue codes.
func NewService(config Config, store CodeStore, senders map[domain.Channel]Sender, logger *slog.Logger) *Service {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.PhoneRegion == "" {
		config.PhoneRegion = DefaultRegion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config:   config,
		store:    store,
		senders:  senders,
		logger:   logger,
		now:      time.Now,
		generate: GenerateCode,
	}
}

// GenerateCode returns a uniformly random code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

// Supports reports whether a sender is configured for the channel.
func (s *Service) Supports(channel domain.Channel) bool {
	_, ok := s.senders[channel]
	return ok
}

// NormalizeIdentifier returns the store key for raw using the configured
// phone region.
func (s *Service) NormalizeIdentifier(channel domain.Channel, raw string) (string, error) {
	return NormalizeIdentifier(channel, raw, s.config.PhoneRegion)
}

// TTL returns the validity window of issued codes.
func (s *Service) TTL() time.Duration {
	return s.config.TTL
}

// Issue generates a fresh code for the identifier, replaces any previous
// code, and delivers it. The code is persisted before delivery, so a
// delivery failure still leaves a usable code behind.
func (s *Service) Issue(ctx context.Context, channel domain.Channel, identifier string) error {
	identifier, err := s.NormalizeIdentifier(channel, identifier)
	if err != nil {
		return err
	}
	sender, ok := s.senders[channel]
	if !ok {
		return domain.ErrUnknownChannel
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.now().UTC()
	record := &domain.VerificationCode{
		Identifier: identifier,
		Channel:    channel,
		Code:       code,
		ExpiresAt:  now.Add(s.config.TTL),
		Verified:   false,
		CreatedAt:  now,
	}
	if err := s.store.Put(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	if err := sender.SendCode(ctx, identifier, code, s.config.TTL); err != nil {
		s.logger.Error("code delivery failed", "channel", channel, "identifier", identifier, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}

	s.logger.Info("verification code issued", "channel", channel, "identifier", identifier)
	return nil
}

// Verify checks a submitted code against the stored one and marks it
// verified. Checks run in order: missing record, expiry, mismatch, already
// verified.
func (s *Service) Verify(ctx context.Context, channel domain.Channel, identifier, code string) error {
	identifier, err := s.NormalizeIdentifier(channel, identifier)
	if err != nil {
		return err
	}
	if code == "" {
		return domain.ErrCodeRequired
	}

	record, err := s.store.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	if record.IsExpired(s.now()) {
		return domain.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return domain.ErrCodeInvalid
	}
	if record.Verified {
		return domain.ErrCodeAlreadyVerified
	}

	if err := s.store.MarkVerified(ctx, identifier); err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	s.logger.Info("verification code verified", "channel", channel, "identifier", identifier)
	return nil
}

// IsVerified reports whether the identifier's current code has been verified.
// Expiry is not considered: a verified code stays proof of control until a
// new code is issued.
func (s *Service) IsVerified(ctx context.Context, channel domain.Channel, identifier string) (bool, error) {
	identifier, err := s.NormalizeIdentifier(channel, identifier)
	if err != nil {
		return false, err
	}
	record, err := s.store.Get(ctx, identifier)
	if errors.Is(err, domain.ErrCodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return record.Verified, nil
}
