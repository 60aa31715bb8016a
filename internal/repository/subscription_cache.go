package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/domain"
)

const defaultSubscriptionCacheTTL = 5 * time.Minute

// CachedSubscriptionRepo is a cache-aside decorator over a
// SubscriptionRepository. The enabled-subscription set per user is the hot
// read on the push fan-out path; every mutation invalidates the affected
// user's entry. Cache failures degrade to the underlying store.
type CachedSubscriptionRepo struct {
	inner  SubscriptionRepository
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSubscriptionRepo(
	inner SubscriptionRepository,
	client *goredis.Client,
	ttl time.Duration,
	logger *zap.Logger,
) (*CachedSubscriptionRepo, error) {
	if inner == nil {
		return nil, fmt.Errorf("subscription repository is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultSubscriptionCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedSubscriptionRepo{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (r *CachedSubscriptionRepo) WithTx(tx *gorm.DB) SubscriptionRepository {
	if tx == nil {
		return r
	}
	// Transactional writes go straight to the store; the cache is only
	// invalidated after the mutation is visible.
	return &CachedSubscriptionRepo{
		inner:  r.inner.WithTx(tx),
		client: r.client,
		ttl:    r.ttl,
		logger: r.logger,
	}
}

func (r *CachedSubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error) {
	stored, err := r.inner.Upsert(ctx, s)
	if err != nil {
		return nil, err
	}
	r.invalidateUser(ctx, stored.UserID)
	return stored, nil
}

func (r *CachedSubscriptionRepo) ListEnabledByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	key := subscriptionCacheKey(userID)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var subscriptions []domain.PushSubscription
		if unmarshalErr := json.Unmarshal(cached, &subscriptions); unmarshalErr == nil {
			return subscriptions, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		r.client.Del(ctx, key)
	} else if !errors.Is(err, goredis.Nil) {
		r.logger.Warn("subscription cache read failed", zap.String("userId", userID), zap.Error(err))
	}

	subscriptions, err := r.inner.ListEnabledByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(subscriptions); marshalErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.logger.Warn("subscription cache write failed", zap.String("userId", userID), zap.Error(setErr))
		}
	}

	return subscriptions, nil
}

func (r *CachedSubscriptionRepo) GetByEndpoint(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
	return r.inner.GetByEndpoint(ctx, endpointARN)
}

func (r *CachedSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	// Resolve the owner before the row disappears; invalidate only after the
	// write lands so a concurrent read cannot re-cache pre-mutation state.
	userID := r.resolveUser(ctx, endpointARN)

	deleted, err := r.inner.DeleteByEndpoint(ctx, endpointARN)
	if err == nil && deleted && userID != "" {
		r.invalidateUser(ctx, userID)
	}
	return deleted, err
}

func (r *CachedSubscriptionRepo) DisableByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	userID := r.resolveUser(ctx, endpointARN)

	disabled, err := r.inner.DisableByEndpoint(ctx, endpointARN)
	if err == nil && disabled && userID != "" {
		r.invalidateUser(ctx, userID)
	}
	return disabled, err
}

func (r *CachedSubscriptionRepo) resolveUser(ctx context.Context, endpointARN string) string {
	sub, err := r.inner.GetByEndpoint(ctx, endpointARN)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("subscription cache invalidation lookup failed",
				zap.String("endpointArn", endpointARN),
				zap.Error(err),
			)
		}
		return ""
	}
	return sub.UserID
}

func (r *CachedSubscriptionRepo) invalidateUser(ctx context.Context, userID string) {
	if err := r.client.Del(ctx, subscriptionCacheKey(userID)).Err(); err != nil {
		r.logger.Warn("subscription cache invalidation failed", zap.String("userId", userID), zap.Error(err))
	}
}

func subscriptionCacheKey(userID string) string {
	return fmt.Sprintf("push_subs:%s", userID)
}
