// certificate-notifier watches submission updates and emails participants
// the link to their certificate once it is attached.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-certify/internal/changefeed"
	"github.com/tendant/simple-certify/internal/config"
	"github.com/tendant/simple-certify/internal/dispatch"
	"github.com/tendant/simple-certify/internal/domain"
	"github.com/tendant/simple-certify/internal/logging"
	"github.com/tendant/simple-certify/internal/notification"
	"github.com/tendant/simple-certify/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if !cfg.HasSMTP() {
		logger.Error("SMTP is not configured; the notifier has nothing to send with")
		os.Exit(1)
	}
	mailer, err := notification.NewMailer(cfg.SMTP, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open change feed", "changefeed", cfg.Changefeed, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	dispatcher := dispatch.New(mailer, logger)

	logger.Info("certificate notifier started", "changefeed", cfg.Changefeed)
	err = source.Run(ctx, func(ctx context.Context, change domain.SubmissionChange) {
		dispatcher.Handle(ctx, change)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("change feed stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("certificate notifier stopped")
}

func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (changefeed.Source, func(), error) {
	switch cfg.Changefeed {
	case config.ChangefeedMongo:
		db, err := repository.NewMongoDatabase(ctx, repository.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  cfg.MongoTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }
		// Without pre-images no update can be recognized as the first link.
		if err := repository.EnableSubmissionPreImages(ctx, db); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("enable submission pre-images: %w", err)
		}
		return changefeed.NewMongoSource(db, logger), closeFn, nil

	case config.ChangefeedPostgres:
		pgCfg := repository.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		}
		db, err := repository.NewDB(pgCfg)
		if err != nil {
			return nil, nil, err
		}
		source := changefeed.NewPostgresSource(pgCfg.DSN(), repository.NewSubmissionsRepository(db), logger)
		return source, func() { _ = db.Close() }, nil

	case config.ChangefeedKafka:
		source, err := changefeed.NewKafkaSource(changefeed.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaSubmissionsTopic,
			GroupID: cfg.KafkaGroupID,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return source, func() { _ = source.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("the %s store has no change feed; set CHANGEFEED to mongo, postgres or kafka", cfg.Changefeed)
	}
}
