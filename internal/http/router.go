package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/http/features/certificate"
	otpfeature "github.com/tendant/simple-certify/internal/http/features/otp"
	"github.com/tendant/simple-certify/internal/http/features/submission"
	"github.com/tendant/simple-certify/internal/http/middleware"
	"github.com/tendant/simple-certify/internal/httputil"
	"github.com/tendant/simple-certify/internal/otp"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	CodeService        *otp.Service
	Renderer           certificate.Renderer
	CertificateMailer  certificate.Mailer // nil disables emailed certificates
	Submissions        submission.Store
	RateLimitConfig    config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
	CORSAllowedOrigins []string
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	// One-time code routes, per configured channel
	otpHandler := otpfeature.NewHandler(cfg.Logger, cfg.CodeService)
	if cfg.CodeService.Supports(domain.ChannelEmail) {
		otpHandler.RegisterEmailRoutes(r, rateLimiters[middleware.LimitIssue], rateLimiters[middleware.LimitVerify])
	} else {
		cfg.Logger.Warn("email delivery not configured, email code routes disabled")
	}
	if cfg.CodeService.Supports(domain.ChannelSMS) {
		otpHandler.RegisterSMSRoutes(r, rateLimiters[middleware.LimitIssue], rateLimiters[middleware.LimitVerify])
	} else {
		cfg.Logger.Warn("SMS delivery not configured, SMS code routes disabled")
	}

	certificateHandler := certificate.NewHandler(cfg.Logger, cfg.Renderer, cfg.CertificateMailer)
	certificateHandler.RegisterRoutes(r, rateLimiters[middleware.LimitCertificate])

	if cfg.Submissions != nil {
		submissionHandler := submission.NewHandler(cfg.Logger, cfg.CodeService, cfg.Submissions)
		submissionHandler.RegisterRoutes(r, rateLimiters[middleware.LimitSubmission])
	}

	return r
}
