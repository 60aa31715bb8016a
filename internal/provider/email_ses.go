package provider

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESEmailSender sends email through AWS SES v2. The sender address must be
// a verified SES identity.
type SESEmailSender struct {
	client *sesv2.Client
	sender string
	logger *zap.Logger
}

func NewSESEmailSender(ctx context.Context, settings AWSSettings, sender string, logger *zap.Logger) (*SESEmailSender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !settings.configured() {
		logger.Warn("ses email sender disabled, aws credentials missing")
		return &SESEmailSender{sender: sender, logger: logger}, nil
	}

	cfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, err
	}

	return &SESEmailSender{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
		logger: logger,
	}, nil
}

func (s *SESEmailSender) Send(ctx context.Context, to, subject, text, html string) error {
	if s.client == nil {
		return fmt.Errorf("%w: ses", ErrNotConfigured)
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(text)},
	}
	if html != "" {
		body.Html = &types.Content{Data: aws.String(html)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    body,
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	s.logger.Debug("email sent",
		zap.String("to", to),
		zap.String("messageId", aws.ToString(out.MessageId)),
	)
	return nil
}
