package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-certify/internal/certificate"
	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/domain"
	httpserver "github.com/tendant/simple-certify/internal/http"
	certfeature "github.com/tendant/simple-certify/internal/http/features/certificate"
	"github.com/tendant/simple-certify/internal/http/features/submission"
	"github.com/tendant/simple-certify/internal/logging"
	"github.com/tendant/simple-certify/internal/notification"
	"github.com/tendant/simple-certify/internal/otp"
	"github.com/tendant/simple-certify/internal/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	codeStore, submissions, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	senders := map[domain.Channel]otp.Sender{}

	var certMailer certfeature.Mailer
	if cfg.HasSMTP() {
		mailer, err := notification.NewMailer(cfg.SMTP, logger)
		if err != nil {
			logger.Error("failed to initialize mailer", "error", err)
			os.Exit(1)
		}
		senders[domain.ChannelEmail] = mailer
		certMailer = mailer
		logger.Info("email delivery enabled", "servers", len(cfg.SMTP.Servers))
	}

	if cfg.HasTwilio() {
		sms, err := notification.NewSMSSender(notification.TwilioConfig{
			AccountSID:  cfg.TwilioAccountSID,
			AuthToken:   cfg.TwilioAuthToken,
			PhoneNumber: cfg.TwilioPhoneNumber,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize SMS sender", "error", err)
			os.Exit(1)
		}
		senders[domain.ChannelSMS] = sms
		logger.Info("SMS delivery enabled")
	}

	codeService := otp.NewService(otp.Config{TTL: cfg.CodeTTL, PhoneRegion: cfg.PhoneRegion}, codeStore, senders, logger)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		CodeService:        codeService,
		Renderer:           certificate.NewRenderer(),
		CertificateMailer:  certMailer,
		Submissions:        submissions,
		RateLimitConfig:    cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// openStore connects the configured backend and returns its code and
// submission stores plus a close function.
func openStore(cfg *config.Config, logger *slog.Logger) (otp.CodeStore, submission.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		ctx := context.Background()
		db, err := repository.NewMongoDatabase(ctx, repository.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  cfg.MongoTimeout,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := repository.EnableSubmissionPreImages(ctx, db); err != nil {
			logger.Warn("could not enable submission pre-images", "error", err)
		}
		logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }
		return repository.NewMongoCodesRepository(db), repository.NewMongoSubmissionsRepository(db), closeFn, nil

	case config.StorePostgres:
		db, err := repository.NewDB(postgresConfig(cfg))
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("connected to database")
		return repository.NewVerificationCodesRepository(db), repository.NewSubmissionsRepository(db), closeDB(db), nil

	default:
		logger.Warn("using in-memory store, codes and submissions are lost on restart")
		return repository.NewMemoryCodeStore(), repository.NewMemorySubmissionStore(), func() {}, nil
	}
}

func postgresConfig(cfg *config.Config) repository.Config {
	return repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
