package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const textbeeBaseURL = "https://api.textbee.dev/api/v1"

// TextbeeConfig holds the Textbee gateway credentials.
type TextbeeConfig struct {
	APIKey   string
	DeviceID string
}

func (c TextbeeConfig) configured() bool {
	return c.APIKey != "" && c.DeviceID != ""
}

// TextbeeSMSSender sends SMS through the Textbee device gateway API.
type TextbeeSMSSender struct {
	client *resty.Client
	config TextbeeConfig
	logger *zap.Logger
}

func NewTextbeeSMSSender(config TextbeeConfig, logger *zap.Logger) *TextbeeSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.configured() {
		logger.Warn("textbee sms sender disabled, credentials missing")
	}

	client := resty.New().
		SetBaseURL(textbeeBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &TextbeeSMSSender{
		client: client,
		config: config,
		logger: logger,
	}
}

type textbeeSendRequest struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

func (s *TextbeeSMSSender) Send(ctx context.Context, phone, body string) error {
	if !s.config.configured() {
		return fmt.Errorf("%w: textbee", ErrNotConfigured)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", s.config.APIKey).
		SetBody(textbeeSendRequest{
			Recipients: []string{phone},
			Message:    body,
		}).
		Post(fmt.Sprintf("/gateway/devices/%s/send-sms", s.config.DeviceID))
	if err != nil {
		return fmt.Errorf("textbee request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("textbee send failed: status %d: %s", resp.StatusCode(), resp.String())
	}

	s.logger.Debug("sms sent via textbee", zap.String("to", phone))
	return nil
}
