package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

// SNSSMSSender sends SMS through AWS SNS direct phone-number publish.
type SNSSMSSender struct {
	client   *sns.Client
	senderID string
	smsType  string
	logger   *zap.Logger
}

func NewSNSSMSSender(ctx context.Context, settings AWSSettings, senderID, smsType string, logger *zap.Logger) (*SNSSMSSender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if smsType == "" {
		smsType = "Transactional"
	}
	if !settings.configured() {
		logger.Warn("sns sms sender disabled, aws credentials missing")
		return &SNSSMSSender{senderID: senderID, smsType: smsType, logger: logger}, nil
	}

	cfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, err
	}

	return &SNSSMSSender{
		client:   sns.NewFromConfig(cfg),
		senderID: senderID,
		smsType:  smsType,
		logger:   logger,
	}, nil
}

func (s *SNSSMSSender) Send(ctx context.Context, phone, body string) error {
	if s.client == nil {
		return fmt.Errorf("%w: sns sms", ErrNotConfigured)
	}

	attributes := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(s.smsType),
		},
	}
	if s.senderID != "" {
		attributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(body),
		MessageAttributes: attributes,
	})
	if err != nil {
		return fmt.Errorf("sns sms publish failed: %w", err)
	}

	s.logger.Debug("sms sent via sns",
		zap.String("to", phone),
		zap.String("messageId", aws.ToString(out.MessageId)),
	)
	return nil
}
