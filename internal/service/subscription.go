package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/provider"
	"github.com/emrekoc/notifyq/internal/repository"
)

// SubscriptionService registers device tokens with the push platform and
// keeps the subscription store in sync with it.
type SubscriptionService struct {
	repo   repository.SubscriptionRepository
	push   provider.PushSender
	logger *zap.Logger
}

func NewSubscriptionService(repo repository.SubscriptionRepository, push provider.PushSender, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SubscriptionService{
		repo:   repo,
		push:   push,
		logger: logger,
	}
}

// Register creates (or refreshes) a platform endpoint for the device token
// and upserts the subscription on its (user, device token) natural key.
// Re-registering a known device keeps the original row and re-enables it.
func (s *SubscriptionService) Register(ctx context.Context, userID, deviceToken string) (*domain.PushSubscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(deviceToken) == "" {
		return nil, fmt.Errorf("%w: device_token is required", domain.ErrValidation)
	}

	endpointARN, err := s.push.CreateEndpoint(ctx, deviceToken, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: push endpoint registration failed: %v", domain.ErrUnavailable, err)
	}

	subscription := &domain.PushSubscription{
		UserID:      userID,
		DeviceToken: deviceToken,
		EndpointARN: endpointARN,
		Platform:    domain.PlatformAndroidSNS,
		Enabled:     true,
	}
	if err := subscription.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, subscription)
	if err != nil {
		return nil, err
	}

	s.logger.Info("push subscription registered",
		zap.String("userId", userID),
		zap.String("endpointArn", endpointARN),
	)

	return stored, nil
}

// Unregister removes the subscription and its platform endpoint. The endpoint
// delete is best effort: a dangling platform endpoint is harmless, a stored
// row pointing at a deleted endpoint is not.
func (s *SubscriptionService) Unregister(ctx context.Context, userID, endpointARN string) error {
	subscription, err := s.repo.GetByEndpoint(ctx, endpointARN)
	if err != nil {
		return err
	}
	if subscription.UserID != userID {
		return domain.ErrNotFound
	}

	if err := s.push.DeleteEndpoint(ctx, endpointARN); err != nil {
		s.logger.Warn("failed to delete platform endpoint",
			zap.String("endpointArn", endpointARN),
			zap.Error(err),
		)
	}

	deleted, err := s.repo.DeleteByEndpoint(ctx, endpointARN)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.logger.Info("push subscription removed",
		zap.String("userId", userID),
		zap.String("endpointArn", endpointARN),
	)

	return nil
}
