package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/reservation-platform/cmd/mainconfig"
	"github.com/clinicbook/reservation-platform/internal/api/router"
	"github.com/clinicbook/reservation-platform/internal/availability"
	"github.com/clinicbook/reservation-platform/internal/catalog"
	appconfig "github.com/clinicbook/reservation-platform/internal/config"
	"github.com/clinicbook/reservation-platform/internal/history"
	"github.com/clinicbook/reservation-platform/internal/notify"
	"github.com/clinicbook/reservation-platform/internal/observability/metrics"
	"github.com/clinicbook/reservation-platform/internal/reservations"
	"github.com/clinicbook/reservation-platform/internal/scheduling"
	syncjobs "github.com/clinicbook/reservation-platform/internal/sync"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservation platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	catalogRepo := catalog.NewRepository(pool)
	catalogSource := catalog.NewSource(catalogRepo, redisClient, cfg.CatalogCacheTTL, logger)
	historyRepo := history.NewRepository(pool)

	providerClient, err := scheduling.NewClient(scheduling.ClientConfig{
		BaseURL: cfg.SchedulerBaseURL,
		APIKey:  cfg.SchedulerAPIKey,
		Timeout: cfg.SchedulerTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to configure scheduling provider", "error", err)
		os.Exit(1)
	}

	var provider scheduling.Provider = providerClient
	var shadowProvider *scheduling.CachedProvider
	if cfg.SchedulerShadowSync {
		shadowProvider = scheduling.NewCachedProvider(providerClient)
		provider = shadowProvider
		syncer, err := scheduling.NewSyncer(scheduling.SyncerConfig{
			Provider:   shadowProvider,
			Interval:   cfg.SchedulerSyncEvery,
			WindowDays: cfg.SchedulerWindowDays,
			Logger:     logger,
		})
		if err != nil {
			logger.Error("failed to configure schedule syncer", "error", err)
			os.Exit(1)
		}
		go syncer.Start(ctx)
	}

	availabilityMetrics := metrics.NewAvailabilityMetrics(nil)
	engine, err := availability.NewEngine(availability.EngineConfig{
		Provider:         provider,
		Catalogs:         catalogSource,
		History:          historyRepo,
		DefaultRangeDays: cfg.DefaultDateRangeDays,
		Logger:           logger,
		Metrics:          availabilityMetrics,
	})
	if err != nil {
		logger.Error("failed to build availability engine", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	emailSender := buildEmailSender(cfg, awsCfg, logger)
	contactRepo := notify.NewContactRepository(pool)
	confirmations, err := notify.NewService(emailSender, contactRepo, catalogSource, logger)
	if err != nil {
		logger.Error("failed to build notification service", "error", err)
		os.Exit(1)
	}

	reservationRepo := reservations.NewRepository(pool)
	reservationSvc, err := reservations.NewService(reservationRepo, confirmations, logger)
	if err != nil {
		logger.Error("failed to build reservation service", "error", err)
		os.Exit(1)
	}

	var queue syncjobs.Queue
	var runStore syncjobs.RunRecorder
	if cfg.UseMemoryQueue {
		queue = syncjobs.NewMemoryQueue(128)
		logger.Info("using in-memory sync queue")
	} else if cfg.SyncQueueURL != "" {
		sqsClient := sqs.NewFromConfig(awsCfg)
		queue = syncjobs.NewSQSQueue(sqsClient, cfg.SyncQueueURL)
		if cfg.SyncRunsTable != "" {
			dynamoClient := dynamodb.NewFromConfig(awsCfg)
			runStore = syncjobs.NewRunStore(dynamoClient, cfg.SyncRunsTable, logger)
		}
	}

	var syncHandler *syncjobs.Handler
	if queue != nil {
		publisher, err := syncjobs.NewPublisher(queue, runStore, logger)
		if err != nil {
			logger.Error("failed to build sync publisher", "error", err)
			os.Exit(1)
		}
		syncHandler = syncjobs.NewHandler(publisher, runStore, logger)

		workerCfg := syncjobs.WorkerConfig{
			Queue:      queue,
			Runs:       runStore,
			Catalogs:   catalogSource,
			WindowDays: cfg.SchedulerWindowDays,
			Logger:     logger,
		}
		if shadowProvider != nil {
			workerCfg.Schedule = shadowProvider
		}
		worker, err := syncjobs.NewWorker(workerCfg)
		if err != nil {
			logger.Error("failed to build sync worker", "error", err)
			os.Exit(1)
		}
		go func() { _ = worker.Run(ctx) }()

		if cfg.CatalogSyncEvery > 0 {
			enqueuer, err := syncjobs.NewEnqueuer(syncjobs.EnqueuerConfig{
				Publisher: publisher,
				Kind:      syncjobs.KindCatalogRefresh,
				Interval:  cfg.CatalogSyncEvery,
				Logger:    logger,
			})
			if err != nil {
				logger.Error("failed to build sync enqueuer", "error", err)
				os.Exit(1)
			}
			go enqueuer.Start(ctx)
		}
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(engine, logger),
		ReservationsHandler: reservations.NewHandler(reservationSvc, logger),
		SyncHandler:         syncHandler,
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  splitOrigins(cfg.CORSAllowedOrigins),
		RateLimitPerSecond:  cfg.RateLimitPerSec,
		RateLimitBurst:      cfg.RateLimitBurst,
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
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildEmailSender picks the configured provider, falling back to the stub
// sender so reservation writes never depend on email configuration.
func buildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch strings.ToLower(cfg.EmailProvider) {
	case "ses":
		if cfg.SESFromEmail != "" {
			return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger)
		}
	default:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	logger.Warn("email delivery not configured, confirmations will be logged only")
	return notify.NewStubEmailSender(logger)
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
