package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/tabibah/clinic-platform/cmd/mainconfig"
	appconfig "github.com/tabibah/clinic-platform/internal/config"
	"github.com/tabibah/clinic-platform/internal/delivery"
	"github.com/tabibah/clinic-platform/internal/whatsapp"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue {
		logger.Error("delivery worker requires SQS; unset USE_MEMORY_QUEUE or run the API with the in-process worker")
		os.Exit(1)
	}
	if cfg.DeliveryQueueURL == "" {
		logger.Error("DELIVERY_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := delivery.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.DeliveryQueueURL)
	journal := delivery.NewJournal(pool)

	sender, err := whatsapp.New(whatsapp.Config{
		Endpoint: cfg.WhatsAppAPIEndpoint,
		APIToken: cfg.WhatsAppAPIToken,
		Timeout:  cfg.WhatsAppTimeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to build whatsapp client", "error", err)
		os.Exit(1)
	}

	worker := delivery.NewWorker(queue, journal, sender, logger, nil).
		WithMaxAttempts(cfg.WhatsAppRetryMaxAttempts).
		WithBaseDelay(cfg.WhatsAppRetryBaseDelay).
		WithWorkerCount(cfg.WorkerCount)
	retrySender := delivery.NewRetrySender(queue, journal, logger)

	logger.Info("delivery worker started", "queue", cfg.DeliveryQueueURL)

	go retrySender.Run(ctx)
	worker.Run(ctx)

	logger.Info("delivery worker stopped")
}
