package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tabibah/clinic-platform/cmd/mainconfig"
	"github.com/tabibah/clinic-platform/internal/api/router"
	"github.com/tabibah/clinic-platform/internal/appointments"
	"github.com/tabibah/clinic-platform/internal/clinics"
	appconfig "github.com/tabibah/clinic-platform/internal/config"
	"github.com/tabibah/clinic-platform/internal/delivery"
	"github.com/tabibah/clinic-platform/internal/devices"
	"github.com/tabibah/clinic-platform/internal/doctors"
	"github.com/tabibah/clinic-platform/internal/events"
	"github.com/tabibah/clinic-platform/internal/inventory"
	"github.com/tabibah/clinic-platform/internal/invoices"
	"github.com/tabibah/clinic-platform/internal/notify"
	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/internal/patients"
	"github.com/tabibah/clinic-platform/internal/scheduling"
	"github.com/tabibah/clinic-platform/internal/users"
	"github.com/tabibah/clinic-platform/internal/whatsapp"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)
	notifMetrics := metrics.NewNotificationMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Repositories
	doctorsRepo := doctors.NewPostgresRepository(pool)
	patientsRepo := patients.NewPostgresRepository(pool)
	usersStore := users.NewStore(pool)
	apptRepo := appointments.NewRepository(pool)

	// Per-clinic scheduling settings live in Redis; without it the env
	// defaults apply to every clinic.
	var clinicSettings *clinics.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		clinicSettings = clinics.NewStore(redis.NewClient(opts))
	}
	var settingsStore scheduling.SettingsSource
	if clinicSettings != nil {
		settingsStore = clinicSettings
	}

	slotsSvc := scheduling.NewService(
		scheduling.NewCalculator(cfg.SlotIntervalMinutes),
		doctorsRepo,
		apptRepo,
		settingsStore,
		scheduling.Window{From: cfg.DefaultDayStart, To: cfg.DefaultDayEnd},
		logger,
	)

	apptSvc := appointments.NewService(apptRepo, logger, bookingMetrics)

	// WhatsApp delivery pipeline: journal first, then queue.
	journal := delivery.NewJournal(pool)
	var queue delivery.Queue
	if cfg.UseMemoryQueue {
		queue = delivery.NewMemoryQueue(256)
	} else {
		queue = delivery.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.DeliveryQueueURL)
	}
	publisher := delivery.NewPublisher(queue, journal, cfg.DefaultCountryCode, logger)

	// Email channel: SendGrid when configured, SES as fallback, stub otherwise.
	var emailSender notify.EmailSender
	switch {
	case cfg.SendGridAPIKey != "":
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case cfg.SESFromEmail != "":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	default:
		emailSender = notify.NewStubEmailSender(logger)
	}

	notifStore := notify.NewStore(pool)
	fanout := notify.NewService(
		notifStore,
		notify.NewCatalog(),
		emailSender,
		publisher,
		patientsRepo,
		doctorsRepo,
		usersStore,
		notifMetrics,
		logger,
	)
	if clinicSettings != nil {
		fanout = fanout.WithSettings(clinicSettings)
	}

	// Outbox drain runs inside the API process so committed events reach the
	// fan-out service without a separate binary.
	outboxStore := events.NewOutboxStore(pool)
	deliverer := events.NewDeliverer(outboxStore, fanout, logger)
	go deliverer.Start(ctx)

	// With the in-memory queue the WhatsApp worker must run in-process; the
	// queue has no existence outside it.
	if cfg.UseMemoryQueue {
		waSender := buildWhatsAppSender(cfg, logger)
		worker := delivery.NewWorker(queue, journal, waSender, logger, notifMetrics).
			WithMaxAttempts(cfg.WhatsAppRetryMaxAttempts).
			WithBaseDelay(cfg.WhatsAppRetryBaseDelay).
			WithWorkerCount(cfg.WorkerCount)
		retrySender := delivery.NewRetrySender(queue, journal, logger)
		go worker.Run(ctx)
		go retrySender.Run(ctx)
	}

	// Handlers
	apptHandler := appointments.NewHandler(apptSvc, slotsSvc, patientsRepo, doctorsRepo, bookingMetrics, logger)
	notifyHandler := notify.NewHandler(notifStore, patientsRepo, logger)
	devicesHandler := devices.NewHandler(devices.NewStore(sqlDB), logger)
	invoicesHandler := invoices.NewHandler(invoices.NewService(invoices.NewRepository(pool), logger), logger)
	inventoryHandler := inventory.NewHandler(inventory.NewService(inventory.NewRepository(pool), logger), logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: apptHandler,
		NotifyHandler:       notifyHandler,
		DevicesHandler:      devicesHandler,
		InvoicesHandler:     invoicesHandler,
		InventoryHandler:    inventoryHandler,
		MetricsHandler:      metricsHandler,
		AuthJWTSecret:       cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildWhatsAppSender(cfg *appconfig.Config, logger *logging.Logger) whatsapp.Sender {
	if cfg.WhatsAppAPIEndpoint == "" || cfg.WhatsAppAPIToken == "" {
		logger.Warn("whatsapp gateway not configured, using stub sender")
		return &whatsapp.StubSender{}
	}
	client, err := whatsapp.New(whatsapp.Config{
		Endpoint: cfg.WhatsAppAPIEndpoint,
		APIToken: cfg.WhatsAppAPIToken,
		Timeout:  cfg.WhatsAppTimeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to build whatsapp client, using stub sender", "error", err)
		return &whatsapp.StubSender{}
	}
	return client
}
