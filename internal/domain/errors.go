package domain

import "errors"

// Verification errors
var (
	ErrCodeNotFound        = errors.New("verification code not found")
	ErrCodeExpired         = errors.New("verification code expired")
	ErrCodeInvalid         = errors.New("invalid verification code")
	ErrCodeAlreadyVerified = errors.New("verification code already verified")
)

// Validation errors
var (
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrCodeRequired       = errors.New("code is required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrUnknownChannel     = errors.New("unknown delivery channel")
)

// Downstream errors
var (
	ErrDelivery    = errors.New("message delivery failed")
	ErrPersistence = errors.New("store operation failed")
)
