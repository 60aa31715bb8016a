package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emrekoc/notifyq/internal/config"
	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/infra/postgresql"
	"github.com/emrekoc/notifyq/internal/infra/postgresql/migrations"
	infraredis "github.com/emrekoc/notifyq/internal/infra/redis"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/provider"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
	"github.com/emrekoc/notifyq/internal/service"
)

const consumerPrefetch = 1

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger("notifyq-worker", cfg.LogLevel)
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

	metrics := observability.NewMetrics()

	consumer := queue.NewRabbitMQConsumer(broker, consumerPrefetch, logger)
	consumer.SetRejectHook(metrics.IncMessageRejected)
	publisher := queue.NewRabbitMQPublisher(broker)

	awsSettings := provider.AWSSettings{
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Region:          cfg.AWSRegion,
	}

	emailSender, err := provider.NewSESEmailSender(ctx, awsSettings, cfg.EmailSender, logger)
	if err != nil {
		logger.Fatal("email provider initialization failed", zap.Error(err))
	}

	snsSMS, err := provider.NewSNSSMSSender(ctx, awsSettings, cfg.SNSSenderID, cfg.SNSSMSType, logger)
	if err != nil {
		logger.Fatal("sns sms provider initialization failed", zap.Error(err))
	}

	smsDispatcher := provider.NewSMSDispatcher(map[domain.SMSProvider]provider.SMSSender{
		domain.SMSProviderTwilio: provider.NewTwilioSMSSender(provider.TwilioConfig{
			AccountSID:          cfg.TwilioAccountSID,
			AuthToken:           cfg.TwilioAuthToken,
			MessagingServiceSID: cfg.TwilioMessagingServiceSID,
			FromNumber:          cfg.TwilioFromNumber,
		}, logger),
		domain.SMSProviderAWSSNS: snsSMS,
		domain.SMSProviderTextbee: provider.NewTextbeeSMSSender(provider.TextbeeConfig{
			APIKey:   cfg.TextbeeAPIKey,
			DeviceID: cfg.TextbeeDeviceID,
		}, logger),
	})

	pushSender, err := provider.NewSNSPushSender(ctx, awsSettings, cfg.SNSPlatformApplicationARN, logger)
	if err != nil {
		logger.Fatal("push provider initialization failed", zap.Error(err))
	}

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

	pipeline := service.NewProcessingPipeline(
		consumer,
		cfg.QueueName,
		notificationRepo,
		subscriptionRepo,
		emailSender,
		smsDispatcher,
		pushSender,
		metrics,
		logger,
	)

	scheduler := service.NewScheduler(
		notificationRepo,
		publisher,
		cfg.QueueName,
		time.Duration(cfg.SchedulerIntervalSec)*time.Second,
		cfg.SchedulerScanLimit,
		metrics,
		logger,
	)

	logger.Info("worker started", zap.String("queue", cfg.QueueName))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipeline.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		return
	}

	logger.Info("worker stopped")
}
