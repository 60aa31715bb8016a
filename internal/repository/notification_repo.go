package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/domain"
)

type NotificationRepository interface {
	// WithTx returns a repository bound to the given transaction so writes
	// participate in the caller's transaction instead of auto-committing.
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// UpdateStatus reports false (not an error) when the id is absent.
	UpdateStatus(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error)
	// ListDue returns rows in the given status whose send_at is due, oldest
	// send_at first.
	ListDue(ctx context.Context, status domain.Status, now time.Time, limit int) ([]domain.Notification, error)
	// MarkPendingIfScheduled promotes a row to PENDING only if it is still
	// SCHEDULED; reports whether the promotion happened.
	MarkPendingIfScheduled(ctx context.Context, id string) (bool, error)
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

func (r *GormNotificationRepo) WithTx(tx *gorm.DB) NotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepo{db: tx}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolationError(err) {
			return domain.ErrConflict
		}
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) UpdateStatus(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error) {
	updates := map[string]any{"status": status}
	if retryCount != nil {
		updates["retry_count"] = *retryCount
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormNotificationRepo) ListDue(ctx context.Context, status domain.Status, now time.Time, limit int) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND send_at IS NOT NULL AND send_at <= ?", status, now).
		Order("send_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, nil
}

func (r *GormNotificationRepo) MarkPendingIfScheduled(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status = ?", id, domain.StatusScheduled).
		Update("status", domain.StatusPending)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
