package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"
)

// SNSPushSender delivers Android push notifications through SNS platform
// endpoints backed by a GCM/FCM platform application.
type SNSPushSender struct {
	client         *sns.Client
	applicationARN string
	logger         *zap.Logger
}

func NewSNSPushSender(ctx context.Context, settings AWSSettings, applicationARN string, logger *zap.Logger) (*SNSPushSender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !settings.configured() || applicationARN == "" {
		logger.Warn("sns push sender disabled, credentials or platform application missing")
		return &SNSPushSender{applicationARN: applicationARN, logger: logger}, nil
	}

	cfg, err := loadAWSConfig(ctx, settings)
	if err != nil {
		return nil, err
	}

	return &SNSPushSender{
		client:         sns.NewFromConfig(cfg),
		applicationARN: applicationARN,
		logger:         logger,
	}, nil
}

func (s *SNSPushSender) ready() bool {
	return s.client != nil && s.applicationARN != ""
}

func (s *SNSPushSender) CreateEndpoint(ctx context.Context, deviceToken, userID string) (string, error) {
	if !s.ready() {
		return "", fmt.Errorf("%w: sns push", ErrNotConfigured)
	}

	out, err := s.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.applicationARN),
		Token:                  aws.String(deviceToken),
		CustomUserData:         aws.String(fmt.Sprintf("user_id:%s", userID)),
	})
	if err != nil {
		return "", fmt.Errorf("sns create endpoint failed: %w", err)
	}

	arn := aws.ToString(out.EndpointArn)
	s.logger.Debug("push endpoint created", zap.String("userId", userID), zap.String("endpointArn", arn))
	return arn, nil
}

func (s *SNSPushSender) DeleteEndpoint(ctx context.Context, endpointARN string) error {
	if !s.ready() {
		return fmt.Errorf("%w: sns push", ErrNotConfigured)
	}

	_, err := s.client.DeleteEndpoint(ctx, &sns.DeleteEndpointInput{
		EndpointArn: aws.String(endpointARN),
	})
	if err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("sns delete endpoint failed: %w", err)
	}
	return nil
}

type gcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type gcmPayload struct {
	Notification gcmNotification `json:"notification"`
	Data         map[string]any  `json:"data,omitempty"`
}

func (s *SNSPushSender) Send(ctx context.Context, endpointARN, title, body string, data map[string]any) error {
	if !s.ready() {
		return fmt.Errorf("%w: sns push", ErrNotConfigured)
	}

	gcm, err := json.Marshal(gcmPayload{
		Notification: gcmNotification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	message, err := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpointARN),
		Message:          aws.String(string(message)),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		var disabled *types.EndpointDisabledException
		if errors.As(err, &disabled) {
			return fmt.Errorf("%w: %s", ErrEndpointDisabled, endpointARN)
		}
		return fmt.Errorf("sns push publish failed: %w", err)
	}

	s.logger.Debug("push sent",
		zap.String("endpointArn", endpointARN),
		zap.String("messageId", aws.ToString(out.MessageId)),
	)
	return nil
}
