package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/jonboulle/clockwork"
	"google.golang.org/api/option"

	"github.com/dorjecito/thermosafe-sub000/internal/adapter/fcm"
	storeadapter "github.com/dorjecito/thermosafe-sub000/internal/adapter/firestore"
	httpadapter "github.com/dorjecito/thermosafe-sub000/internal/adapter/http"
	kafkaadapter "github.com/dorjecito/thermosafe-sub000/internal/adapter/kafka"
	"github.com/dorjecito/thermosafe-sub000/internal/adapter/openweather"
	"github.com/dorjecito/thermosafe-sub000/internal/config"
	"github.com/dorjecito/thermosafe-sub000/internal/job"
	"github.com/dorjecito/thermosafe-sub000/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		logger.Error("firebase init failed", "error", err)
		os.Exit(1)
	}
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("messaging client init failed", "error", err)
		os.Exit(1)
	}
	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		logger.Error("firestore client init failed", "error", err)
		os.Exit(1)
	}

	store := storeadapter.New(firestoreClient, cfg.FirestoreCollection)
	dispatcher := fcm.New(messagingClient, cfg.SiteURL, logger)
	weather := openweather.NewClient(cfg.WeatherAPIKey, cfg.WeatherTimeout, logger)

	// Audit sink is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var audit job.AuditSink
	var auditPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		auditPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		audit = auditPublisher
		logger.Info("kafka audit sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka audit sink disabled")
	}

	evaluator := job.NewEvaluator(store, weather, dispatcher, audit, logger, metrics, cfg.EvalBatchSize)
	collector := job.NewCollector(store, dispatcher, logger, metrics,
		cfg.GCPageSize, cfg.GCConcurrency, cfg.StaleAfter)
	scheduler := job.NewScheduler(evaluator, collector, clockwork.NewRealClock(), logger,
		cfg.EvalInterval, cfg.GCInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, scheduler, evaluator, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start job scheduler.
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditPublisher != nil {
		if err := auditPublisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := firestoreClient.Close(); err != nil {
		logger.Error("firestore client close error", "error", err)
	}

	logger.Info("shutdown complete")
}
