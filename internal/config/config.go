package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN    string `env:"DATABASE_DSN,required=true"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS,default=5"`
	RabbitMQURL    string `env:"RABBITMQ_URL,required=true"`
	RedisURL       string `env:"REDIS_URL,required=true"`
	QueueName      string `env:"QUEUE_NAME,default=notification_tasks"`
	APIPort        int    `env:"API_PORT,default=8080"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`

	SchedulerIntervalSec int `env:"SCHEDULER_INTERVAL_SEC,default=5"`
	SchedulerScanLimit   int `env:"SCHEDULER_SCAN_LIMIT,default=100"`

	SubscriptionCacheTTLSec int `env:"SUBSCRIPTION_CACHE_TTL_SEC,default=300"`

	// Email (AWS SES). The sender must be a verified SES identity.
	EmailSender string `env:"EMAIL_SENDER,default=notifications@example.com"`

	// Shared AWS credentials for SES and SNS. Left empty, the affected
	// providers report failure without attempting a network call.
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION_NAME,default=us-east-1"`

	// SMS via AWS SNS.
	SNSSenderID string `env:"SNS_SENDER_ID"`
	SNSSMSType  string `env:"SNS_SMS_TYPE,default=Transactional"`

	// Android push via SNS platform endpoints.
	SNSPlatformApplicationARN string `env:"SNS_PLATFORM_APPLICATION_ARN_ANDROID"`

	// SMS via Twilio. Either the messaging service SID or a from number is
	// required alongside the account credentials.
	TwilioAccountSID          string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken           string `env:"TWILIO_AUTH_TOKEN"`
	TwilioMessagingServiceSID string `env:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioFromNumber          string `env:"TWILIO_FROM_NUMBER"`

	// SMS via Textbee.
	TextbeeAPIKey   string `env:"TEXTBEE_API_KEY"`
	TextbeeDeviceID string `env:"TEXTBEE_DEVICE_ID"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
