package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/emrekoc/notifyq/internal/domain"
)

// NotificationMessage is the broker payload: the full persisted record,
// serialized verbatim. Timestamps render as RFC3339 strings, the id as a
// canonical UUID string.
type NotificationMessage struct {
	ID             string         `json:"id"`
	Channel        string         `json:"channel"`
	SMSProvider    *string        `json:"sms_provider,omitempty"`
	RecipientEmail *string        `json:"recipient_email,omitempty"`
	RecipientPhone *string        `json:"recipient_phone,omitempty"`
	UserID         *string        `json:"user_id,omitempty"`
	Subject        *string        `json:"subject,omitempty"`
	MessageBody    string         `json:"message_body"`
	MessageHTML    *string        `json:"message_html,omitempty"`
	PushTitle      *string        `json:"push_title,omitempty"`
	PushData       map[string]any `json:"push_data,omitempty"`
	SendAt         *time.Time     `json:"send_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	RetryCount     int            `json:"retry_count"`
}

func MessageFromDomain(n *domain.Notification) NotificationMessage {
	msg := NotificationMessage{
		ID:             n.ID,
		Channel:        n.Channel.String(),
		RecipientEmail: n.RecipientEmail,
		RecipientPhone: n.RecipientPhone,
		UserID:         n.UserID,
		Subject:        n.Subject,
		MessageBody:    n.MessageBody,
		MessageHTML:    n.MessageHTML,
		PushTitle:      n.PushTitle,
		PushData:       n.PushData,
		SendAt:         n.SendAt,
		Metadata:       n.Metadata,
		Status:         n.Status.String(),
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
		RetryCount:     n.RetryCount,
	}
	if n.SMSProvider != nil {
		value := n.SMSProvider.String()
		msg.SMSProvider = &value
	}
	return msg
}

// ToDomain parses the payload back into a domain record, enforcing the shape
// invariants a structurally valid message must satisfy. A message that fails
// here can never succeed on retry.
func (m NotificationMessage) ToDomain() (*domain.Notification, error) {
	if _, err := uuid.Parse(strings.TrimSpace(m.ID)); err != nil {
		return nil, fmt.Errorf("%w: invalid notification id %q", domain.ErrValidation, m.ID)
	}

	channel, err := domain.ParseChannelFromString(m.Channel)
	if err != nil {
		return nil, err
	}

	status, err := domain.ParseStatusFromString(m.Status)
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{
		ID:             strings.TrimSpace(m.ID),
		Channel:        channel,
		RecipientEmail: m.RecipientEmail,
		RecipientPhone: m.RecipientPhone,
		UserID:         m.UserID,
		Subject:        m.Subject,
		MessageBody:    m.MessageBody,
		MessageHTML:    m.MessageHTML,
		PushTitle:      m.PushTitle,
		PushData:       datatypes.JSONMap(m.PushData),
		SendAt:         m.SendAt,
		Metadata:       datatypes.JSONMap(m.Metadata),
		Status:         status,
		RetryCount:     m.RetryCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.SMSProvider != nil {
		provider, err := domain.ParseSMSProviderFromString(*m.SMSProvider)
		if err != nil {
			return nil, err
		}
		n.SMSProvider = &provider
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}
