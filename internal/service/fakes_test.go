package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
)

type fakeNotificationRepo struct {
	createFn                 func(ctx context.Context, n *domain.Notification) error
	getByIDFn                func(ctx context.Context, id string) (*domain.Notification, error)
	updateStatusFn           func(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error)
	listDueFn                func(ctx context.Context, status domain.Status, now time.Time, limit int) ([]domain.Notification, error)
	markPendingIfScheduledFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeNotificationRepo) WithTx(tx *gorm.DB) repository.NotificationRepository { return f }

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, n)
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeNotificationRepo) UpdateStatus(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error) {
	if f.updateStatusFn == nil {
		return true, nil
	}
	return f.updateStatusFn(ctx, id, status, retryCount)
}

func (f *fakeNotificationRepo) ListDue(ctx context.Context, status domain.Status, now time.Time, limit int) ([]domain.Notification, error) {
	if f.listDueFn == nil {
		return nil, nil
	}
	return f.listDueFn(ctx, status, now, limit)
}

func (f *fakeNotificationRepo) MarkPendingIfScheduled(ctx context.Context, id string) (bool, error) {
	if f.markPendingIfScheduledFn == nil {
		return true, nil
	}
	return f.markPendingIfScheduledFn(ctx, id)
}

type fakeSubscriptionRepo struct {
	upsertFn            func(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error)
	listEnabledByUserFn func(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	getByEndpointFn     func(ctx context.Context, endpointARN string) (*domain.PushSubscription, error)
	deleteByEndpointFn  func(ctx context.Context, endpointARN string) (bool, error)
	disableByEndpointFn func(ctx context.Context, endpointARN string) (bool, error)
}

func (f *fakeSubscriptionRepo) WithTx(tx *gorm.DB) repository.SubscriptionRepository { return f }

func (f *fakeSubscriptionRepo) Upsert(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error) {
	if f.upsertFn == nil {
		return s, nil
	}
	return f.upsertFn(ctx, s)
}

func (f *fakeSubscriptionRepo) ListEnabledByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	if f.listEnabledByUserFn == nil {
		return nil, nil
	}
	return f.listEnabledByUserFn(ctx, userID)
}

func (f *fakeSubscriptionRepo) GetByEndpoint(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
	if f.getByEndpointFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByEndpointFn(ctx, endpointARN)
}

func (f *fakeSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	if f.deleteByEndpointFn == nil {
		return true, nil
	}
	return f.deleteByEndpointFn(ctx, endpointARN)
}

func (f *fakeSubscriptionRepo) DisableByEndpoint(ctx context.Context, endpointARN string) (bool, error) {
	if f.disableByEndpointFn == nil {
		return true, nil
	}
	return f.disableByEndpointFn(ctx, endpointARN)
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, n *domain.Notification) error
	published []*domain.Notification
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, n *domain.Notification) error {
	if f.publishFn != nil {
		if err := f.publishFn(ctx, queueName, n); err != nil {
			return err
		}
	}
	f.published = append(f.published, n)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queueName string, handler queue.MessageHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn == nil {
		return nil
	}
	return f.consumeFn(ctx, queueName, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeEmailSender struct {
	sendFn func(ctx context.Context, to, subject, text, html string) error
	sent   int
}

func (f *fakeEmailSender) Send(ctx context.Context, to, subject, text, html string) error {
	f.sent++
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, to, subject, text, html)
}

type fakeSMSSender struct {
	sendFn func(ctx context.Context, phone, body string) error
	sent   int
}

func (f *fakeSMSSender) Send(ctx context.Context, phone, body string) error {
	f.sent++
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, phone, body)
}

type fakePushSender struct {
	createEndpointFn func(ctx context.Context, deviceToken, userID string) (string, error)
	deleteEndpointFn func(ctx context.Context, endpointARN string) error
	sendFn           func(ctx context.Context, endpointARN, title, body string, data map[string]any) error
}

func (f *fakePushSender) CreateEndpoint(ctx context.Context, deviceToken, userID string) (string, error) {
	if f.createEndpointFn == nil {
		return "arn:aws:sns:eu-west-1:123:endpoint/GCM/app/" + deviceToken, nil
	}
	return f.createEndpointFn(ctx, deviceToken, userID)
}

func (f *fakePushSender) DeleteEndpoint(ctx context.Context, endpointARN string) error {
	if f.deleteEndpointFn == nil {
		return nil
	}
	return f.deleteEndpointFn(ctx, endpointARN)
}

func (f *fakePushSender) Send(ctx context.Context, endpointARN, title, body string, data map[string]any) error {
	if f.sendFn == nil {
		return nil
	}
	return f.sendFn(ctx, endpointARN, title, body, data)
}

var errStorageDown = errors.New("storage down")

type fakeTxRunner struct{}

func (fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	return fc(nil)
}
