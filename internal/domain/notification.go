package domain

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Status represents the lifecycle state of a notification.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusScheduled      Status = "SCHEDULED"
	StatusProcessingStub Status = "PROCESSING_STUB"
	StatusSent           Status = "SENT"
	StatusFailed         Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusProcessingStub, StatusSent, StatusFailed:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail       Channel = "EMAIL"
	ChannelSMS         Channel = "SMS"
	ChannelInApp       Channel = "IN_APP"
	ChannelPushAndroid Channel = "PUSH_ANDROID"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelInApp, ChannelPushAndroid:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// SMSProvider selects the outbound SMS transport.
type SMSProvider string

const (
	SMSProviderTwilio  SMSProvider = "TWILIO"
	SMSProviderAWSSNS  SMSProvider = "AWS_SNS"
	SMSProviderTextbee SMSProvider = "TEXTBEE"
)

func (p SMSProvider) String() string { return string(p) }

func (p SMSProvider) IsValid() bool {
	switch p {
	case SMSProviderTwilio, SMSProviderAWSSNS, SMSProviderTextbee:
		return true
	}
	return false
}

func ParseSMSProviderFromString(s string) (SMSProvider, error) {
	p := SMSProvider(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid sms provider %q", ErrValidation, s)
	}
	return p, nil
}

// Notification is the core domain entity: one unit of deliverable work.
type Notification struct {
	ID             string
	Channel        Channel
	SMSProvider    *SMSProvider
	RecipientEmail *string
	RecipientPhone *string
	UserID         *string
	Subject        *string
	MessageBody    string
	MessageHTML    *string
	PushTitle      *string
	PushData       datatypes.JSONMap
	SendAt         *time.Time
	Metadata       datatypes.JSONMap
	Status         Status
	RetryCount     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate enforces the channel-dependent required fields. The same invariants
// are checked once at ingest and defensively on the consumer side.
func (n *Notification) Validate() error {
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}
	if strings.TrimSpace(n.MessageBody) == "" {
		return fmt.Errorf("%w: message_body is required", ErrValidation)
	}

	switch n.Channel {
	case ChannelEmail:
		if !hasValue(n.RecipientEmail) {
			return fmt.Errorf("%w: recipient_email is required for EMAIL channel", ErrValidation)
		}
		if !hasValue(n.Subject) {
			return fmt.Errorf("%w: subject is required for EMAIL channel", ErrValidation)
		}
	case ChannelSMS:
		if !hasValue(n.RecipientPhone) {
			return fmt.Errorf("%w: recipient_phone is required for SMS channel", ErrValidation)
		}
		if n.SMSProvider == nil {
			return fmt.Errorf("%w: sms_provider is required for SMS channel", ErrValidation)
		}
		if !n.SMSProvider.IsValid() {
			return fmt.Errorf("%w: invalid sms provider %q", ErrValidation, *n.SMSProvider)
		}
	case ChannelInApp, ChannelPushAndroid:
		if !hasValue(n.UserID) {
			return fmt.Errorf("%w: user_id is required for %s channel", ErrValidation, n.Channel)
		}
	}

	return nil
}

// InitialStatus computes the status assigned at ingest: SCHEDULED when send_at
// is strictly in the future, PENDING otherwise.
func InitialStatus(sendAt *time.Time, now time.Time) Status {
	if sendAt != nil && sendAt.After(now) {
		return StatusScheduled
	}
	return StatusPending
}

func hasValue(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
