// Package certify provides workshop participant verification by one-time
// code, certificate rendering and certificate-ready notifications as a
// mountable library.
//
// Basic usage:
//
//	c, err := certify.New(certify.Config{
//	    CodeStore: certify.NewMemoryCodeStore(),
//	    Mailer:    mailer, // implements SendCode and SendCertificate
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/certify", c.Router())
//	http.ListenAndServe(":8080", r)
//
// Routes (POST unless noted):
//
//	/v1/issue-email-code, /v1/verify-email-code   - when Mailer is set
//	/v1/issue-sms-code, /v1/verify-sms-code       - when SMS is set
//	/v1/generate-certificate                      - always
//	/v1/submit-feedback                           - when Submissions is set
//	GET /health
package certify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-certify/internal/certificate"
	"github.com/tendant/simple-certify/internal/dispatch"
	"github.com/tendant/simple-certify/internal/domain"
	certfeature "github.com/tendant/simple-certify/internal/http/features/certificate"
	otpfeature "github.com/tendant/simple-certify/internal/http/features/otp"
	"github.com/tendant/simple-certify/internal/http/features/submission"
	"github.com/tendant/simple-certify/internal/http/middleware"
	"github.com/tendant/simple-certify/internal/httputil"
	"github.com/tendant/simple-certify/internal/otp"
	"github.com/tendant/simple-certify/internal/repository"
)

type (
	VerificationCode   = domain.VerificationCode
	Submission         = domain.Submission
	SubmissionChange   = domain.SubmissionChange
	CertificateRequest = domain.CertificateRequest
	Channel            = domain.Channel
	Outcome            = dispatch.Outcome
)

const (
	ChannelEmail = domain.ChannelEmail
	ChannelSMS   = domain.ChannelSMS

	OutcomeSkipped = dispatch.OutcomeSkipped
	OutcomeSent    = dispatch.OutcomeSent
	OutcomeFailed  = dispatch.OutcomeFailed
)

// Errors returned by VerifyCode.
var (
	ErrCodeNotFound        = domain.ErrCodeNotFound
	ErrCodeExpired         = domain.ErrCodeExpired
	ErrCodeInvalid         = domain.ErrCodeInvalid
	ErrCodeAlreadyVerified = domain.ErrCodeAlreadyVerified
)

// CodeStore persists one verification code per identifier.
type CodeStore = otp.CodeStore

// CodeSender delivers a code on one channel.
type CodeSender = otp.Sender

// Mailer delivers codes and rendered certificates by email.
type Mailer interface {
	CodeSender
	SendCertificate(ctx context.Context, to string, req CertificateRequest, pdf []byte) error
}

// SubmissionStore persists feedback submissions.
type SubmissionStore = submission.Store

// LinkMailer sends the certificate-ready email.
type LinkMailer = dispatch.LinkMailer

// Config holds the configuration for the library.
type Config struct {
	// CodeStore holds issued codes (required).
	CodeStore CodeStore

	// Mailer enables email codes and emailed certificates (optional).
	Mailer Mailer

	// SMS enables SMS codes (optional).
	SMS CodeSender

	// Submissions enables the feedback submission endpoint (optional).
	Submissions SubmissionStore

	// CodeTTL is how long an issued code is valid (default: 10 minutes).
	CodeTTL time.Duration

	// PhoneRegion is the region for phone numbers given without a country
	// code (default: US).
	PhoneRegion string

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Certify is the library instance.
type Certify struct {
	config   Config
	codes    *otp.Service
	renderer *certificate.Renderer
}

// New creates a library instance.
func New(cfg Config) (*Certify, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	senders := map[domain.Channel]otp.Sender{}
	if cfg.Mailer != nil {
		senders[domain.ChannelEmail] = cfg.Mailer
	}
	if cfg.SMS != nil {
		senders[domain.ChannelSMS] = cfg.SMS
	}

	return &Certify{
		config:   cfg,
		codes:    otp.NewService(otp.Config{TTL: cfg.CodeTTL, PhoneRegion: cfg.PhoneRegion}, cfg.CodeStore, senders, cfg.Logger),
		renderer: certificate.NewRenderer(),
	}, nil
}

// NewMemoryCodeStore returns an in-process code store. Codes are lost on
// restart and not shared between replicas.
func NewMemoryCodeStore() CodeStore {
	return repository.NewMemoryCodeStore()
}

// Router returns a chi router with all routes. No rate limiting is applied;
// wrap it with your own limiter when exposing it publicly.
func (c *Certify) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(c.config.Logger))
	r.Use(middleware.Recover(c.config.Logger))

	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	r.Get("/health", c.HealthHandler())

	noLimit := middleware.NoRateLimit()

	otpHandler := otpfeature.NewHandler(c.config.Logger, c.codes)
	if c.codes.Supports(domain.ChannelEmail) {
		otpHandler.RegisterEmailRoutes(r, noLimit, noLimit)
	}
	if c.codes.Supports(domain.ChannelSMS) {
		otpHandler.RegisterSMSRoutes(r, noLimit, noLimit)
	}

	var certMailer certfeature.Mailer
	if c.config.Mailer != nil {
		certMailer = c.config.Mailer
	}
	certfeature.NewHandler(c.config.Logger, c.renderer, certMailer).RegisterRoutes(r, noLimit)

	if c.config.Submissions != nil {
		submission.NewHandler(c.config.Logger, c.codes, c.config.Submissions).RegisterRoutes(r, noLimit)
	}

	return r
}

// Handler returns the router as an http.Handler for use with http.StripPrefix.
func (c *Certify) Handler() http.Handler {
	return c.Router()
}

// HealthHandler returns a simple health check handler.
func (c *Certify) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// IssueCode generates and delivers a fresh code for the identifier.
func (c *Certify) IssueCode(ctx context.Context, channel Channel, identifier string) error {
	return c.codes.Issue(ctx, channel, identifier)
}

// VerifyCode checks a submitted code.
func (c *Certify) VerifyCode(ctx context.Context, channel Channel, identifier, code string) error {
	return c.codes.Verify(ctx, channel, identifier, code)
}

// RenderCertificate returns the certificate PDF for req.
func (c *Certify) RenderCertificate(req CertificateRequest) ([]byte, error) {
	return c.renderer.Render(req)
}

// HandleSubmissionChange emails the certificate link when change first
// populates it. Use it as the callback of your own change feed.
func (c *Certify) HandleSubmissionChange(ctx context.Context, mailer LinkMailer, change SubmissionChange) Outcome {
	return dispatch.New(mailer, c.config.Logger).Handle(ctx, change)
}

func validateConfig(cfg *Config) error {
	if cfg.CodeStore == nil {
		return errors.New("certify: CodeStore is required")
	}
	if cfg.CodeTTL < 0 {
		return errors.New("certify: CodeTTL must not be negative")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = otp.DefaultTTL
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = otp.DefaultRegion
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}
