package otp

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/tendant/simple-certify/internal/domain"
)

const maxEmailLength = 254 // RFC 5321

// DefaultRegion is the region assumed for phone numbers written without a
// country code.
const DefaultRegion = "US"

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone parses a phone number, reading national formats in region,
// and returns it in E.164.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrIdentifierRequired
	}
	// Vanity letters and extensions are not deliverable by SMS.
	if strings.IndexFunc(raw, unicode.IsLetter) >= 0 {
		return "", domain.ErrInvalidPhone
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", domain.ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeIdentifier validates raw input for the channel and returns the
// form used as the code store key. region applies to phone numbers only.
func NormalizeIdentifier(channel domain.Channel, raw, region string) (string, error) {
	switch channel {
	case domain.ChannelEmail:
		email := NormalizeEmail(raw)
		if email == "" {
			return "", domain.ErrIdentifierRequired
		}
		if len(email) > maxEmailLength {
			return "", domain.ErrInvalidEmail
		}
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return "", domain.ErrInvalidEmail
		}
		return email, nil
	case domain.ChannelSMS:
		return NormalizePhone(raw, region)
	default:
		return "", domain.ErrUnknownChannel
	}
}
