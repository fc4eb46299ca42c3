package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crmkit/lead-capture/internal/alert"
	"github.com/crmkit/lead-capture/internal/config"
	"github.com/crmkit/lead-capture/internal/feed"
	"github.com/crmkit/lead-capture/internal/handler"
	"github.com/crmkit/lead-capture/internal/infra/postgresql"
	"github.com/crmkit/lead-capture/internal/infra/postgresql/migrations"
	infraredis "github.com/crmkit/lead-capture/internal/infra/redis"
	"github.com/crmkit/lead-capture/internal/notify"
	"github.com/crmkit/lead-capture/internal/observability"
	"github.com/crmkit/lead-capture/internal/queue"
	"github.com/crmkit/lead-capture/internal/repository"
	"github.com/crmkit/lead-capture/internal/service"
	"github.com/crmkit/lead-capture/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	metrics := observability.NewMetrics()

	leadRepo := repository.NewGormLeadRepo(db)
	activityRepo := repository.NewGormActivityRepo(db)

	store := notify.NewStore(cfg.NotificationCap, metrics)
	toasts := notify.NewPresenter(time.Duration(cfg.ToastTTLSeconds)*time.Second, logger, metrics)
	defer toasts.Close()

	prefs := alert.NewPreferences()

	publisher := queue.NewRabbitMQPublisher(broker)
	dispatcher, err := alert.NewDispatcher(publisher, prefs, logger, metrics)
	if err != nil {
		logger.Fatal("alert dispatcher initialization failed", zap.Error(err))
	}

	center, err := notify.NewCenter(store, toasts, dispatcher, logger, metrics)
	if err != nil {
		logger.Fatal("notification center initialization failed", zap.Error(err))
	}

	pushFeed, err := feed.NewPushFeed(rdb, cfg.PushChannel, center.Sink(), logger, metrics)
	if err != nil {
		logger.Fatal("push feed initialization failed", zap.Error(err))
	}

	pollFeed, err := feed.NewPollFeed(
		leadRepo,
		center.Sink(),
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		logger,
		metrics,
	)
	if err != nil {
		logger.Fatal("poll feed initialization failed", zap.Error(err))
	}

	var pusher alert.Pusher
	if cfg.DesktopPushURL != "" {
		webhookPusher, err := alert.NewWebhookPusher(cfg.DesktopPushURL)
		if err != nil {
			logger.Fatal("desktop push initialization failed", zap.Error(err))
		}
		pusher = webhookPusher
	}

	consumer := queue.NewRabbitMQConsumer(broker, 8, logger)
	alertWorker, err := alert.NewWorker(consumer, pusher, logger, metrics)
	if err != nil {
		logger.Fatal("alert worker initialization failed", zap.Error(err))
	}

	limiter, err := infraredis.NewIngestRateLimiter(rdb, cfg.IngestRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	leadService, err := service.NewLeadService(leadRepo, activityRepo, rdb, cfg.PushChannel, logger, metrics)
	if err != nil {
		logger.Fatal("lead service initialization failed", zap.Error(err))
	}

	if cfg.CRMAPIKey == "" {
		logger.Warn("CRM_API_KEY is not set, public lead submissions will be rejected")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())

	handler.NewLeadHandler(leadService, limiter, cfg.CRMAPIKey, logger).RegisterRoutes(app)
	handler.NewNotificationHandler(store, toasts, prefs, pushFeed, pollFeed, logger).RegisterRoutes(app)
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", metrics.FiberHandler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return center.Run(gctx) })
	g.Go(func() error { return pushFeed.Start(gctx) })
	g.Go(func() error { return pollFeed.Start(gctx) })
	g.Go(func() error { return alertWorker.Start(gctx) })

	g.Go(func() error {
		logger.Info("lead-capture api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("service exited with error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
