package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioConfig holds the Twilio REST credentials. Either MessagingServiceSID
// or FromNumber must be set; the messaging service wins when both are.
type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	FromNumber          string
}

func (c TwilioConfig) configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" &&
		(c.MessagingServiceSID != "" || c.FromNumber != "")
}

// TwilioSMSSender sends SMS through the Twilio Messages API.
type TwilioSMSSender struct {
	client *resty.Client
	config TwilioConfig
	logger *zap.Logger
}

func NewTwilioSMSSender(config TwilioConfig, logger *zap.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.configured() {
		logger.Warn("twilio sms sender disabled, credentials missing")
	}

	client := resty.New().
		SetBaseURL(twilioBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &TwilioSMSSender{
		client: client,
		config: config,
		logger: logger,
	}
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *TwilioSMSSender) Send(ctx context.Context, phone, body string) error {
	if !s.config.configured() {
		return fmt.Errorf("%w: twilio", ErrNotConfigured)
	}

	form := map[string]string{
		"To":   phone,
		"Body": body,
	}
	if s.config.MessagingServiceSID != "" {
		form["MessagingServiceSid"] = s.config.MessagingServiceSID
	} else {
		form["From"] = s.config.FromNumber
	}

	var result twilioMessageResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.config.AccountSID, s.config.AuthToken).
		SetFormData(form).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/Accounts/%s/Messages.json", s.config.AccountSID))
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio send failed: status %d: %s", resp.StatusCode(), result.Message)
	}

	s.logger.Debug("sms sent via twilio",
		zap.String("to", phone),
		zap.String("sid", result.SID),
		zap.String("status", result.Status),
	)
	return nil
}
