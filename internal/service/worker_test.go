package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/provider"
)

func strptr(v string) *string { return &v }

func emailNotification() *domain.Notification {
	return &domain.Notification{
		ID:             "5f0c3d8e-55e5-4f5e-9d78-0a1a0c2b3d4e",
		Channel:        domain.ChannelEmail,
		RecipientEmail: strptr("user@example.com"),
		Subject:        strptr("Welcome"),
		MessageBody:    "hello",
		Status:         domain.StatusPending,
	}
}

func pushNotification() *domain.Notification {
	return &domain.Notification{
		ID:          "7a1b2c3d-4e5f-4a6b-8c9d-0e1f2a3b4c5d",
		Channel:     domain.ChannelPushAndroid,
		UserID:      strptr("user-1"),
		PushTitle:   strptr("Ping"),
		MessageBody: "hello",
		Status:      domain.StatusPending,
	}
}

type statusWrite struct {
	status     domain.Status
	retryCount *int
}

func newPipeline(
	repo *fakeNotificationRepo,
	subs *fakeSubscriptionRepo,
	email *fakeEmailSender,
	sms map[domain.SMSProvider]provider.SMSSender,
	push *fakePushSender,
) *ProcessingPipeline {
	return NewProcessingPipeline(
		&fakeConsumer{},
		"notification_tasks",
		repo,
		subs,
		email,
		provider.NewSMSDispatcher(sms),
		push,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func repoForNotification(n *domain.Notification, writes *[]statusWrite) *fakeNotificationRepo {
	return &fakeNotificationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			if id != n.ID {
				return nil, domain.ErrNotFound
			}
			copied := *n
			return &copied, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error) {
			*writes = append(*writes, statusWrite{status: status, retryCount: retryCount})
			return true, nil
		},
	}
}

func TestProcessMessageEmailSent(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	var writes []statusWrite
	repo := repoForNotification(n, &writes)
	email := &fakeEmailSender{}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, email, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if email.sent != 1 {
		t.Fatalf("email sent %d times, want 1", email.sent)
	}
	if len(writes) != 1 || writes[0].status != domain.StatusSent {
		t.Fatalf("status writes = %+v, want one SENT", writes)
	}
	if writes[0].retryCount != nil {
		t.Fatalf("retry count = %v, want nil on success", *writes[0].retryCount)
	}
}

func TestProcessMessageEmailMissingRecipientFails(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	n.RecipientEmail = nil
	var writes []statusWrite
	repo := repoForNotification(n, &writes)
	email := &fakeEmailSender{}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, email, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if email.sent != 0 {
		t.Fatalf("email sent %d times, want 0 without a recipient", email.sent)
	}
	if len(writes) != 1 || writes[0].status != domain.StatusFailed {
		t.Fatalf("status writes = %+v, want one FAILED", writes)
	}
}

func TestProcessMessageEmailFailureIsTerminal(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	n.RetryCount = 1
	var writes []statusWrite
	repo := repoForNotification(n, &writes)
	email := &fakeEmailSender{
		sendFn: func(ctx context.Context, to, subject, text, html string) error {
			return errors.New("smtp refused")
		},
	}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, email, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(writes) != 1 || writes[0].status != domain.StatusFailed {
		t.Fatalf("status writes = %+v, want one FAILED", writes)
	}
	if writes[0].retryCount == nil || *writes[0].retryCount != 2 {
		t.Fatalf("retry count = %v, want 2", writes[0].retryCount)
	}
}

func TestProcessMessageSMSRoutesByProvider(t *testing.T) {
	t.Parallel()

	twilioProvider := domain.SMSProviderTwilio
	n := &domain.Notification{
		ID:             "3e8d9f10-2a4b-4c5d-8e6f-7a8b9c0d1e2f",
		Channel:        domain.ChannelSMS,
		SMSProvider:    &twilioProvider,
		RecipientPhone: strptr("+905551112233"),
		MessageBody:    "code 1234",
		Status:         domain.StatusPending,
	}

	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	twilio := &fakeSMSSender{}
	textbee := &fakeSMSSender{}
	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, map[domain.SMSProvider]provider.SMSSender{
		domain.SMSProviderTwilio:  twilio,
		domain.SMSProviderTextbee: textbee,
	}, &fakePushSender{})

	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if twilio.sent != 1 || textbee.sent != 0 {
		t.Fatalf("twilio sent %d, textbee sent %d, want 1 and 0", twilio.sent, textbee.sent)
	}
	if len(writes) != 1 || writes[0].status != domain.StatusSent {
		t.Fatalf("status writes = %+v, want one SENT", writes)
	}
}

func TestProcessMessageSMSWithoutBackendFails(t *testing.T) {
	t.Parallel()

	snsProvider := domain.SMSProviderAWSSNS
	n := &domain.Notification{
		ID:             "4f9e0a21-3b5c-4d6e-9f70-8b9c0d1e2f30",
		Channel:        domain.ChannelSMS,
		SMSProvider:    &snsProvider,
		RecipientPhone: strptr("+905551112233"),
		MessageBody:    "code 1234",
		Status:         domain.StatusPending,
	}

	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(writes) != 1 || writes[0].status != domain.StatusFailed {
		t.Fatalf("status writes = %+v, want one FAILED", writes)
	}
}

func TestProcessMessageInAppParksInStubState(t *testing.T) {
	t.Parallel()

	n := &domain.Notification{
		ID:          "6a0b1c2d-3e4f-4a5b-8c6d-7e8f9a0b1c2d",
		Channel:     domain.ChannelInApp,
		UserID:      strptr("user-1"),
		MessageBody: "hello",
		Status:      domain.StatusPending,
	}

	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(writes) != 1 || writes[0].status != domain.StatusProcessingStub {
		t.Fatalf("status writes = %+v, want one PROCESSING_STUB", writes)
	}
}

func TestProcessMessagePushFanOutAllSucceed(t *testing.T) {
	t.Parallel()

	n := pushNotification()
	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	subs := &fakeSubscriptionRepo{
		listEnabledByUserFn: func(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
			return []domain.PushSubscription{
				{UserID: userID, EndpointARN: "arn:endpoint/1", Enabled: true},
				{UserID: userID, EndpointARN: "arn:endpoint/2", Enabled: true},
			}, nil
		},
	}

	var mu sync.Mutex
	delivered := map[string]int{}
	push := &fakePushSender{
		sendFn: func(ctx context.Context, endpointARN, title, body string, data map[string]any) error {
			mu.Lock()
			delivered[endpointARN]++
			mu.Unlock()
			return nil
		},
	}

	pipeline := newPipeline(repo, subs, &fakeEmailSender{}, nil, push)
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(delivered) != 2 {
		t.Fatalf("delivered to %d endpoints, want 2", len(delivered))
	}
	if len(writes) != 1 || writes[0].status != domain.StatusSent {
		t.Fatalf("status writes = %+v, want one SENT", writes)
	}
}

func TestProcessMessagePushPartialFailureFails(t *testing.T) {
	t.Parallel()

	n := pushNotification()
	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	subs := &fakeSubscriptionRepo{
		listEnabledByUserFn: func(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
			return []domain.PushSubscription{
				{UserID: userID, EndpointARN: "arn:endpoint/ok", Enabled: true},
				{UserID: userID, EndpointARN: "arn:endpoint/dead", Enabled: true},
			}, nil
		},
	}

	var mu sync.Mutex
	var disabled []string
	subs.disableByEndpointFn = func(ctx context.Context, endpointARN string) (bool, error) {
		mu.Lock()
		disabled = append(disabled, endpointARN)
		mu.Unlock()
		return true, nil
	}

	push := &fakePushSender{
		sendFn: func(ctx context.Context, endpointARN, title, body string, data map[string]any) error {
			if endpointARN == "arn:endpoint/dead" {
				return fmt.Errorf("%w: %s", provider.ErrEndpointDisabled, endpointARN)
			}
			return nil
		},
	}

	pipeline := newPipeline(repo, subs, &fakeEmailSender{}, nil, push)
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(writes) != 1 || writes[0].status != domain.StatusFailed {
		t.Fatalf("status writes = %+v, want one FAILED", writes)
	}
	if len(disabled) != 1 || disabled[0] != "arn:endpoint/dead" {
		t.Fatalf("disabled endpoints = %v, want [arn:endpoint/dead]", disabled)
	}
}

func TestProcessMessagePushWithoutSubscriptionsFails(t *testing.T) {
	t.Parallel()

	n := pushNotification()
	var writes []statusWrite
	repo := repoForNotification(n, &writes)

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if len(writes) != 1 || writes[0].status != domain.StatusFailed {
		t.Fatalf("status writes = %+v, want one FAILED", writes)
	}
}

func TestProcessMessageUnknownNotificationIsDropped(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{}
	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})

	if err := pipeline.ProcessMessage(context.Background(), emailNotification()); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}
}

func TestProcessMessageAlreadySentIsSkipped(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	n.Status = domain.StatusSent

	var writes []statusWrite
	repo := repoForNotification(n, &writes)
	email := &fakeEmailSender{}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, email, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}

	if email.sent != 0 {
		t.Fatalf("email sent %d times, want 0 for already sent notification", email.sent)
	}
	if len(writes) != 0 {
		t.Fatalf("status writes = %+v, want none", writes)
	}
}

func TestProcessMessageStorageErrorRequeues(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	repo := &fakeNotificationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			copied := *n
			return &copied, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error) {
			return false, errStorageDown
		},
	}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})
	err := pipeline.ProcessMessage(context.Background(), n)
	if !errors.Is(err, errStorageDown) {
		t.Fatalf("ProcessMessage() error = %v, want wrapped storage error", err)
	}
}

func TestProcessMessageRowGoneBeforeUpdateAcks(t *testing.T) {
	t.Parallel()

	n := emailNotification()
	repo := &fakeNotificationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			copied := *n
			return &copied, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status domain.Status, retryCount *int) (bool, error) {
			return false, nil
		},
	}

	pipeline := newPipeline(repo, &fakeSubscriptionRepo{}, &fakeEmailSender{}, nil, &fakePushSender{})
	if err := pipeline.ProcessMessage(context.Background(), n); err != nil {
		t.Fatalf("ProcessMessage() unexpected error = %v", err)
	}
}
