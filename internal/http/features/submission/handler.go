package submission

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/httputil"
)

// VerificationChecker normalizes identifiers and reports whether one has a
// verified code.
type VerificationChecker interface {
	NormalizeIdentifier(channel domain.Channel, raw string) (string, error)
	IsVerified(ctx context.Context, channel domain.Channel, identifier string) (bool, error)
}

// Store persists submissions.
type Store interface {
	Create(ctx context.Context, s *domain.Submission) error
}

type Handler struct {
	logger      *slog.Logger
	verifier    VerificationChecker
	submissions Store
	now         func() time.Time
}

func NewHandler(logger *slog.Logger, verifier VerificationChecker, submissions Store) *Handler {
	return &Handler{
		logger:      logger,
		verifier:    verifier,
		submissions: submissions,
		now:         time.Now,
	}
}

type SubmitFeedbackRequest struct {
	WorkshopID string `json:"workshopId"`
	Name       string `json:"name"`
	Course     string `json:"course"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Feedback   string `json:"feedback"`
}

type SubmitFeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// SubmitFeedback stores a feedback submission once both the email and the
// phone number have been verified.
// POST /v1/submit-feedback
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req SubmitFeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}

	fields := []struct {
		name  string
		value *string
		clean func(string) string
		max   int
	}{
		{"workshopId", &req.WorkshopID, httputil.CleanLine, httputil.MaxLineLength},
		{"name", &req.Name, httputil.CleanLine, httputil.MaxLineLength},
		{"course", &req.Course, httputil.CleanLine, httputil.MaxLineLength},
		{"email", &req.Email, strings.TrimSpace, 0},
		{"phone", &req.Phone, strings.TrimSpace, 0},
		{"feedback", &req.Feedback, httputil.CleanText, httputil.MaxTextLength},
	}
	for _, f := range fields {
		*f.value = f.clean(*f.value)
		if *f.value == "" {
			httputil.Error(w, http.StatusBadRequest, "Bad Request: All fields are required.")
			return
		}
	}
	for _, f := range fields {
		if err := httputil.CheckLength(f.name, *f.value, f.max); err != nil {
			httputil.Error(w, http.StatusBadRequest, "Bad Request: "+err.Error()+".")
			return
		}
	}

	email, err := h.verifier.NormalizeIdentifier(domain.ChannelEmail, req.Email)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Bad Request: Invalid email address.")
		return
	}
	phone, err := h.verifier.NormalizeIdentifier(domain.ChannelSMS, req.Phone)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "Bad Request: Invalid phone number.")
		return
	}

	ctx := r.Context()
	for _, check := range []struct {
		channel    domain.Channel
		identifier string
	}{
		{domain.ChannelEmail, email},
		{domain.ChannelSMS, phone},
	} {
		verified, err := h.verifier.IsVerified(ctx, check.channel, check.identifier)
		if err != nil {
			h.logger.Error("failed to check verification", "channel", check.channel, "error", err)
			httputil.Error(w, http.StatusInternalServerError, "Internal Server Error: Could not submit feedback.")
			return
		}
		if !verified {
			httputil.Error(w, http.StatusForbidden, "Please verify both your email and phone number before submitting.")
			return
		}
	}

	sub := &domain.Submission{
		WorkshopID:  req.WorkshopID,
		Name:        req.Name,
		Course:      req.Course,
		Email:       email,
		Phone:       phone,
		Feedback:    req.Feedback,
		SubmittedAt: h.now().UTC(),
	}
	if err := h.submissions.Create(ctx, sub); err != nil {
		h.logger.Error("failed to store submission", "workshop_id", req.WorkshopID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "Internal Server Error: Could not submit feedback.")
		return
	}

	h.logger.Info("feedback submitted", "submission_id", sub.ID, "workshop_id", sub.WorkshopID)
	httputil.JSON(w, http.StatusCreated, SubmitFeedbackResponse{
		Success: true,
		Message: "Feedback submitted successfully.",
		ID:      sub.ID,
	})
}
