package domain

import "time"

// Channel is the medium a verification code is delivered through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// VerificationCode is the pending one-time code for an identifier (an email
// address or a phone number). Issuing a new code for the same identifier
// replaces the previous record.
type VerificationCode struct {
	Identifier string    `bson:"_id" json:"identifier"`
	Channel    Channel   `bson:"channel" json:"channel"`
	Code       string    `bson:"code" json:"code"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
	Verified   bool      `bson:"verified" json:"verified"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// IsExpired reports whether now is past the absolute expiry time.
func (c *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
