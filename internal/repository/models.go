package repository

import (
	"time"

	"gorm.io/datatypes"

	"github.com/emrekoc/notifyq/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID             string              `gorm:"type:uuid;primaryKey"`
	Channel        domain.Channel      `gorm:"type:varchar(20);not null"`
	SMSProvider    *domain.SMSProvider `gorm:"column:sms_provider;type:varchar(20)"`
	RecipientEmail *string             `gorm:"type:varchar(255)"`
	RecipientPhone *string             `gorm:"type:varchar(32)"`
	UserID         *string             `gorm:"type:varchar(255)"`
	Subject        *string             `gorm:"type:varchar(255)"`
	MessageBody    string              `gorm:"type:text;not null"`
	MessageHTML    *string             `gorm:"column:message_html;type:text"`
	PushTitle      *string             `gorm:"type:varchar(255)"`
	PushData       datatypes.JSONMap   `gorm:"type:jsonb"`
	SendAt         *time.Time          `gorm:"type:timestamptz"`
	Metadata       datatypes.JSONMap   `gorm:"type:jsonb"`
	Status         domain.Status       `gorm:"type:varchar(20);not null"`
	RetryCount     int                 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// PushSubscriptionModel is the persistence model for push_subscriptions.
type PushSubscriptionModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:varchar(255);not null"`
	DeviceToken string `gorm:"type:text;not null"`
	EndpointARN string `gorm:"column:endpoint_arn;type:varchar(512);not null"`
	Platform    string `gorm:"type:varchar(20);not null"`
	Enabled     bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PushSubscriptionModel) TableName() string {
	return "push_subscriptions"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:             n.ID,
		Channel:        n.Channel,
		SMSProvider:    n.SMSProvider,
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
		Status:         n.Status,
		RetryCount:     n.RetryCount,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:             m.ID,
		Channel:        m.Channel,
		SMSProvider:    m.SMSProvider,
		RecipientEmail: m.RecipientEmail,
		RecipientPhone: m.RecipientPhone,
		UserID:         m.UserID,
		Subject:        m.Subject,
		MessageBody:    m.MessageBody,
		MessageHTML:    m.MessageHTML,
		PushTitle:      m.PushTitle,
		PushData:       m.PushData,
		SendAt:         m.SendAt,
		Metadata:       m.Metadata,
		Status:         m.Status,
		RetryCount:     m.RetryCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func subscriptionModelFromDomain(s *domain.PushSubscription) *PushSubscriptionModel {
	if s == nil {
		return nil
	}

	return &PushSubscriptionModel{
		ID:          s.ID,
		UserID:      s.UserID,
		DeviceToken: s.DeviceToken,
		EndpointARN: s.EndpointARN,
		Platform:    s.Platform,
		Enabled:     s.Enabled,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func subscriptionModelToDomain(m *PushSubscriptionModel) *domain.PushSubscription {
	if m == nil {
		return nil
	}

	return &domain.PushSubscription{
		ID:          m.ID,
		UserID:      m.UserID,
		DeviceToken: m.DeviceToken,
		EndpointARN: m.EndpointARN,
		Platform:    m.Platform,
		Enabled:     m.Enabled,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
