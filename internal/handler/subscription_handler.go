package handler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emrekoc/notifyq/internal/domain"
)

type SubscriptionService interface {
	Register(ctx context.Context, userID, deviceToken string) (*domain.PushSubscription, error)
	Unregister(ctx context.Context, userID, endpointARN string) error
}

type SubscriptionHandler struct {
	service SubscriptionService
}

func NewSubscriptionHandler(service SubscriptionService) (*SubscriptionHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("subscription service is required")
	}
	return &SubscriptionHandler{service: service}, nil
}

func RegisterSubscriptionRoutes(router fiber.Router, service SubscriptionService) error {
	h, err := NewSubscriptionHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/users/:userId/push-subscriptions", h.RegisterSubscription)
	v1.Delete("/users/:userId/push-subscriptions/:endpoint", h.UnregisterSubscription)

	return nil
}

type registerSubscriptionRequest struct {
	DeviceToken string `json:"device_token"`
}

type subscriptionResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DeviceToken string    `json:"device_token"`
	EndpointARN string    `json:"endpoint_arn"`
	Platform    string    `json:"platform"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *SubscriptionHandler) RegisterSubscription(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))

	var req registerSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	subscription, err := h.service.Register(c.Context(), userID, strings.TrimSpace(req.DeviceToken))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toSubscriptionResponse(subscription))
}

func (h *SubscriptionHandler) UnregisterSubscription(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))

	// Endpoint ARNs contain slashes, so the path segment arrives URL-encoded.
	endpointARN, err := url.QueryUnescape(c.Params("endpoint"))
	if err != nil || strings.TrimSpace(endpointARN) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid endpoint identifier")
	}

	if err := h.service.Unregister(c.Context(), userID, strings.TrimSpace(endpointARN)); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func toSubscriptionResponse(s *domain.PushSubscription) subscriptionResponse {
	if s == nil {
		return subscriptionResponse{}
	}

	return subscriptionResponse{
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
