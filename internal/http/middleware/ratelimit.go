package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/httputil"
)

// Rate limiter groups.
const (
	LimitIssue       = "issue"
	LimitVerify      = "verify"
	LimitCertificate = "certificate"
	LimitSubmission  = "submission"
)

// RateLimitConfig holds rate limiting configuration for one endpoint group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters builds one limiter per endpoint group.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimitIssue:       noOp,
			LimitVerify:      noOp,
			LimitCertificate: noOp,
			LimitSubmission:  noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		LimitIssue: RateLimit(RateLimitConfig{
			Requests: cfg.IssueRequestsPerWindow,
			Window:   time.Duration(cfg.IssueWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		LimitVerify: RateLimit(RateLimitConfig{
			Requests: cfg.VerifyRequestsPerWindow,
			Window:   time.Duration(cfg.VerifyWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		LimitCertificate: RateLimit(RateLimitConfig{
			Requests: cfg.CertificateRequestsPerWindow,
			Window:   time.Duration(cfg.CertificateWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
		LimitSubmission: RateLimit(RateLimitConfig{
			Requests: cfg.SubmissionRequestsPerWindow,
			Window:   time.Duration(cfg.SubmissionWindowMinutes) * time.Minute,
			Logger:   logger,
		}),
	}
}
