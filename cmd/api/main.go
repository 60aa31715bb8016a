package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/config"
	"github.com/emrekoc/notifyq/internal/handler"
	"github.com/emrekoc/notifyq/internal/infra/postgresql"
	"github.com/emrekoc/notifyq/internal/infra/postgresql/migrations"
	infraredis "github.com/emrekoc/notifyq/internal/infra/redis"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/provider"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
	"github.com/emrekoc/notifyq/internal/service"
	"github.com/emrekoc/notifyq/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("notifyq-api", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
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

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer broker.Close()

	publisher := queue.NewRabbitMQPublisher(broker)

	awsSettings := provider.AWSSettings{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
	}
	pushSender, err := provider.NewSNSPushSender(ctx, awsSettings, cfg.SNSPlatformApplicationARN, logger)
	if err != nil {
		logger.Fatal("push provider initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	notificationRepo := repository.NewGormNotificationRepo(db)
	subscriptionRepo, err := repository.NewCachedSubscriptionRepo(
		repository.NewGormSubscriptionRepo(db),
		rdb,
		time.Duration(cfg.SubscriptionCacheTTLSec)*time.Second,
		logger,
	)
	if err != nil {
		logger.Fatal("subscription repository initialization failed", zap.Error(err))
	}

	ingestService := service.NewIngestService(db, notificationRepo, publisher, cfg.QueueName, metrics, logger)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, pushSender, logger)

	app := fiber.New(fiber.Config{
		AppName:      "notifyq-api",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb, broker)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterNotificationRoutes(app, ingestService); err != nil {
		logger.Fatal("failed to register notification routes", zap.Error(err))
	}
	if err := handler.RegisterSubscriptionRoutes(app, subscriptionService); err != nil {
		logger.Fatal("failed to register subscription routes", zap.Error(err))
	}

	go func() {
		logger.Info("api listening", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Error("api server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("api shutdown incomplete", zap.Error(err))
	}
}
