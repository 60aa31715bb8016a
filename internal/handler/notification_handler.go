package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emrekoc/notifyq/internal/domain"
)

type NotificationService interface {
	Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications", h.CreateNotification)
	v1.Get("/notifications/:id", h.GetNotification)

	return nil
}

type createNotificationRequest struct {
	Channel        string         `json:"channel"`
	SMSProvider    *string        `json:"sms_provider"`
	RecipientEmail *string        `json:"recipient_email"`
	RecipientPhone *string        `json:"recipient_phone"`
	UserID         *string        `json:"user_id"`
	Subject        *string        `json:"subject"`
	MessageBody    string         `json:"message_body"`
	MessageHTML    *string        `json:"message_html"`
	PushTitle      *string        `json:"push_title"`
	PushData       map[string]any `json:"push_data"`
	SendAt         *time.Time     `json:"send_at"`
	Metadata       map[string]any `json:"metadata"`
}

type createNotificationResponse struct {
	Message        string `json:"message"`
	NotificationID string `json:"notification_id"`
	Status         string `json:"status"`
}

type notificationResponse struct {
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
	RetryCount     int            `json:"retry_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	notification, err := requestToDomainNotification(req)
	if err != nil {
		return toHTTPError(err)
	}

	accepted, err := h.service.Enqueue(c.Context(), &notification)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(createNotificationResponse{
		Message:        "notification accepted",
		NotificationID: accepted.ID,
		Status:         accepted.Status.String(),
	})
}

func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	notification, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func requestToDomainNotification(req createNotificationRequest) (domain.Notification, error) {
	channel, err := domain.ParseChannelFromString(req.Channel)
	if err != nil {
		return domain.Notification{}, err
	}

	n := domain.Notification{
		Channel:        channel,
		RecipientEmail: trimmed(req.RecipientEmail),
		RecipientPhone: trimmed(req.RecipientPhone),
		UserID:         trimmed(req.UserID),
		Subject:        trimmed(req.Subject),
		MessageBody:    strings.TrimSpace(req.MessageBody),
		MessageHTML:    req.MessageHTML,
		PushTitle:      trimmed(req.PushTitle),
		PushData:       req.PushData,
		SendAt:         req.SendAt,
		Metadata:       req.Metadata,
	}

	if req.SMSProvider != nil && strings.TrimSpace(*req.SMSProvider) != "" {
		smsProvider, err := domain.ParseSMSProviderFromString(*req.SMSProvider)
		if err != nil {
			return domain.Notification{}, err
		}
		n.SMSProvider = &smsProvider
	}

	return n, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	value := strings.TrimSpace(*v)
	if value == "" {
		return nil
	}
	return &value
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	if n == nil {
		return notificationResponse{}
	}

	var smsProvider *string
	if n.SMSProvider != nil {
		value := n.SMSProvider.String()
		smsProvider = &value
	}

	return notificationResponse{
		ID:             n.ID,
		Channel:        n.Channel.String(),
		SMSProvider:    smsProvider,
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
		RetryCount:     n.RetryCount,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
