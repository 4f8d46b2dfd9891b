package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio API used here.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds Twilio credentials and the sending number.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// SMSSender sends verification codes as SMS through Twilio.
type SMSSender struct {
	from     string
	messages messageCreator
	logger   *slog.Logger
}

// NewSMSSender creates a Twilio-backed SMS sender.
func NewSMSSender(cfg TwilioConfig, logger *slog.Logger) (*SMSSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.PhoneNumber == "" {
		return nil, errors.New("twilio account sid, auth token and phone number are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{from: cfg.PhoneNumber, messages: client.Api, logger: logger}, nil
}

// SendCode texts a verification code.
func (s *SMSSender) SendCode(ctx context.Context, to, code string, expiresIn time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := renderText(smsText, codeData{Code: code, Minutes: minutes(expiresIn)})
	if err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(string(body))

	msg, err := s.messages.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if msg != nil && msg.Sid != nil {
		s.logger.Debug("sms queued", "to", to, "sid", *msg.Sid)
	}
	return nil
}
