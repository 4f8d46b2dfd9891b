package otp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterEmailRoutes registers the email code routes behind the given limiters.
func (h *Handler) RegisterEmailRoutes(r chi.Router, issueLimit, verifyLimit func(http.Handler) http.Handler) {
	r.With(issueLimit).Post("/v1/issue-email-code", h.IssueEmailCode)
	r.With(verifyLimit).Post("/v1/verify-email-code", h.VerifyEmailCode)
}

// RegisterSMSRoutes registers the SMS code routes behind the given limiters.
func (h *Handler) RegisterSMSRoutes(r chi.Router, issueLimit, verifyLimit func(http.Handler) http.Handler) {
	r.With(issueLimit).Post("/v1/issue-sms-code", h.IssueSMSCode)
	r.With(verifyLimit).Post("/v1/verify-sms-code", h.VerifySMSCode)
}
