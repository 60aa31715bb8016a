package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/domain"
)

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	// Upsert merges on the (user_id, device_token) natural key: re-registering
	// the same device updates the endpoint reference and re-enables the row,
	// preserving its id and created_at.
	Upsert(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error)
	ListEnabledByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	GetByEndpoint(ctx context.Context, endpointARN string) (*domain.PushSubscription, error)
	// DeleteByEndpoint and DisableByEndpoint report false when no row matched.
	DeleteByEndpoint(ctx context.Context, endpointARN string) (bool, error)
	DisableByEndpoint(ctx context.Context, endpointARN string) (bool, error)
}

type GormSubscriptionRepo struct {
	db *gorm.DB
}

func NewGormSubscriptionRepo(db *gorm.DB) *GormSubscriptionRepo {
	return &GormSubscriptionRepo{db: db}
}

func (r *GormSubscriptionRepo) WithTx(tx *gorm.DB) SubscriptionRepository {
	if tx == nil {
		return r
	}
	return &GormSubscriptionRepo{db: tx}
}

func (r *GormSubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error) {
	if s == nil {
		return nil, errors.New("subscription is required")
	}

	var existing PushSubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND device_token = ?", s.UserID, s.DeviceToken).
		First(&existing).Error

	switch {
	case err == nil:
		updates := map[string]any{
			"endpoint_arn": s.EndpointARN,
			"enabled":      true,
		}
		if err := r.db.WithContext(ctx).
			Model(&PushSubscriptionModel{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}

		existing.EndpointARN = s.EndpointARN
		existing.Enabled = true
		existing.UpdatedAt = time.Now().UTC()
		return subscriptionModelToDomain(&existing), nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		model := subscriptionModelFromDomain(s)
		if model.ID == "" {
			model.ID = uuid.NewString()
		}
		if model.Platform == "" {
			model.Platform = domain.PlatformAndroidSNS
		}
		model.Enabled = true

		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			if isUniqueViolationError(err) {
				return nil, domain.ErrConflict
			}
			return nil, err
		}
		return subscriptionModelToDomain(model), nil

	default:
		return nil, err
	}
}

func (r *GormSubscriptionRepo) ListEnabledByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	var models []PushSubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enabled = ?", userID, true).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	subscriptions := make([]domain.PushSubscription, 0, len(models))
	for i := range models {
		subscriptions = append(subscriptions, *subscriptionModelToDomain(&models[i]))
	}

	return subscriptions, nil
}

func (r *GormSubscriptionRepo) GetByEndpoint(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
	var model PushSubscriptionModel
	err := r.db.WithContext(ctx).
		Where("endpoint_arn = ?", endpointARN).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return subscriptionModelToDomain(&model), nil
}

func (r *GormSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("endpoint_arn = ?", endpointARN).
		Delete(&PushSubscriptionModel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormSubscriptionRepo) DisableByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&PushSubscriptionModel{}).
		Where("endpoint_arn = ?", endpointARN).
		Update("enabled", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
