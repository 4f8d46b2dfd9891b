package otp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/httputil"
)

// CodeService issues and verifies one-time codes.
type CodeService interface {
	Issue(ctx context.Context, channel domain.Channel, identifier string) error
	Verify(ctx context.Context, channel domain.Channel, identifier, code string) error
}

type Handler struct {
	logger *slog.Logger
	codes  CodeService
}

func NewHandler(logger *slog.Logger, codes CodeService) *Handler {
	return &Handler{logger: logger, codes: codes}
}

type IssueEmailCodeRequest struct {
	Email string `json:"email"`
}

type VerifyEmailCodeRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type IssueSMSCodeRequest struct {
	Phone string `json:"phone"`
}

type VerifySMSCodeRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// channelMessages are the user-facing texts for one delivery channel.
type channelMessages struct {
	identifierRequired string
	fieldsRequired     string
	invalidIdentifier  string
	sent               string
	sendFailed         string
	verified           string
	verifyFailed       string
}

var emailMessages = channelMessages{
	identifierRequired: "Bad Request: Email is required.",
	fieldsRequired:     "Bad Request: Email and OTP are required.",
	invalidIdentifier:  "Bad Request: Invalid email address.",
	sent:               "OTP sent successfully.",
	sendFailed:         "Internal Server Error: Could not send OTP.",
	verified:           "OTP verified successfully.",
	verifyFailed:       "Internal Server Error: Could not verify OTP.",
}

var smsMessages = channelMessages{
	identifierRequired: "Bad Request: Phone number is required.",
	fieldsRequired:     "Bad Request: Phone and OTP are required.",
	invalidIdentifier:  "Bad Request: Invalid phone number.",
	sent:               "SMS OTP sent successfully.",
	sendFailed:         "Internal Server Error: Could not send SMS OTP.",
	verified:           "SMS OTP verified successfully.",
	verifyFailed:       "Internal Server Error: Could not verify SMS OTP.",
}

// IssueEmailCode sends a verification code by email.
// POST /v1/issue-email-code
func (h *Handler) IssueEmailCode(w http.ResponseWriter, r *http.Request) {
	var req IssueEmailCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	h.issue(w, r, domain.ChannelEmail, req.Email, emailMessages)
}

// VerifyEmailCode checks an emailed code.
// POST /v1/verify-email-code
func (h *Handler) VerifyEmailCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	h.verify(w, r, domain.ChannelEmail, req.Email, req.OTP, emailMessages)
}

// IssueSMSCode sends a verification code by SMS.
// POST /v1/issue-sms-code
func (h *Handler) IssueSMSCode(w http.ResponseWriter, r *http.Request) {
	var req IssueSMSCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	h.issue(w, r, domain.ChannelSMS, req.Phone, smsMessages)
}

// VerifySMSCode checks a texted code.
// POST /v1/verify-sms-code
func (h *Handler) VerifySMSCode(w http.ResponseWriter, r *http.Request) {
	var req VerifySMSCodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	h.verify(w, r, domain.ChannelSMS, req.Phone, req.OTP, smsMessages)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, channel domain.Channel, identifier string, msgs channelMessages) {
	if strings.TrimSpace(identifier) == "" {
		httputil.Error(w, http.StatusBadRequest, msgs.identifierRequired)
		return
	}

	err := h.codes.Issue(r.Context(), channel, identifier)
	switch {
	case err == nil:
		httputil.Message(w, http.StatusOK, true, msgs.sent)
	case errors.Is(err, domain.ErrIdentifierRequired):
		httputil.Error(w, http.StatusBadRequest, msgs.identifierRequired)
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrInvalidPhone):
		httputil.Error(w, http.StatusBadRequest, msgs.invalidIdentifier)
	default:
		h.logger.Error("failed to issue verification code", "channel", channel, "error", err)
		httputil.Error(w, http.StatusInternalServerError, msgs.sendFailed)
	}
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, channel domain.Channel, identifier, code string, msgs channelMessages) {
	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(code) == "" {
		httputil.Error(w, http.StatusBadRequest, msgs.fieldsRequired)
		return
	}

	err := h.codes.Verify(r.Context(), channel, identifier, strings.TrimSpace(code))
	switch {
	case err == nil:
		httputil.Message(w, http.StatusOK, true, msgs.verified)
	case errors.Is(err, domain.ErrIdentifierRequired), errors.Is(err, domain.ErrCodeRequired):
		httputil.Error(w, http.StatusBadRequest, msgs.fieldsRequired)
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrInvalidPhone):
		httputil.Error(w, http.StatusBadRequest, msgs.invalidIdentifier)
	case errors.Is(err, domain.ErrCodeNotFound):
		httputil.Error(w, http.StatusNotFound, "OTP not found or expired.")
	case errors.Is(err, domain.ErrCodeExpired):
		httputil.Error(w, http.StatusGone, "OTP has expired.")
	case errors.Is(err, domain.ErrCodeInvalid):
		httputil.Error(w, http.StatusUnauthorized, "Invalid OTP.")
	case errors.Is(err, domain.ErrCodeAlreadyVerified):
		httputil.Message(w, http.StatusConflict, true, "OTP has already been verified.")
	default:
		h.logger.Error("failed to verify code", "channel", channel, "error", err)
		httputil.Error(w, http.StatusInternalServerError, msgs.verifyFailed)
	}
}
