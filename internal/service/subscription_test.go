package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/domain"
)

func TestRegisterCreatesEndpointAndUpserts(t *testing.T) {
	t.Parallel()

	var upserted *domain.PushSubscription
	repo := &fakeSubscriptionRepo{
		upsertFn: func(ctx context.Context, s *domain.PushSubscription) (*domain.PushSubscription, error) {
			upserted = s
			stored := *s
			stored.ID = "11111111-2222-3333-4444-555555555555"
			return &stored, nil
		},
	}
	push := &fakePushSender{
		createEndpointFn: func(ctx context.Context, deviceToken, userID string) (string, error) {
			if deviceToken != "token-1" || userID != "user-1" {
				t.Fatalf("CreateEndpoint(%q, %q), want token-1 and user-1", deviceToken, userID)
			}
			return "arn:aws:sns:eu-west-1:123:endpoint/GCM/app/abc", nil
		},
	}

	svc := NewSubscriptionService(repo, push, zap.NewNop())
	stored, err := svc.Register(context.Background(), "user-1", "token-1")
	if err != nil {
		t.Fatalf("Register() unexpected error = %v", err)
	}

	if upserted == nil {
		t.Fatal("subscription was not upserted")
	}
	if upserted.EndpointARN != "arn:aws:sns:eu-west-1:123:endpoint/GCM/app/abc" {
		t.Fatalf("EndpointARN = %s", upserted.EndpointARN)
	}
	if !upserted.Enabled {
		t.Fatal("registered subscription must be enabled")
	}
	if upserted.Platform != domain.PlatformAndroidSNS {
		t.Fatalf("Platform = %s, want %s", upserted.Platform, domain.PlatformAndroidSNS)
	}
	if stored.ID == "" {
		t.Fatal("stored subscription id missing")
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()

	svc := NewSubscriptionService(&fakeSubscriptionRepo{}, &fakePushSender{}, zap.NewNop())

	if _, err := svc.Register(context.Background(), "", "token-1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}
	if _, err := svc.Register(context.Background(), "user-1", "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Register() error = %v, want ErrValidation", err)
	}
}

func TestRegisterPlatformFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	push := &fakePushSender{
		createEndpointFn: func(ctx context.Context, deviceToken, userID string) (string, error) {
			return "", errors.New("sns unreachable")
		},
	}

	svc := NewSubscriptionService(&fakeSubscriptionRepo{}, push, zap.NewNop())
	if _, err := svc.Register(context.Background(), "user-1", "token-1"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("Register() error = %v, want ErrUnavailable", err)
	}
}

func TestUnregisterDeletesEndpointAndRow(t *testing.T) {
	t.Parallel()

	const arn = "arn:aws:sns:eu-west-1:123:endpoint/GCM/app/abc"

	var deletedARN string
	repo := &fakeSubscriptionRepo{
		getByEndpointFn: func(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
			return &domain.PushSubscription{UserID: "user-1", EndpointARN: endpointARN}, nil
		},
		deleteByEndpointFn: func(ctx context.Context, endpointARN string) (bool, error) {
			deletedARN = endpointARN
			return true, nil
		},
	}

	platformDeleted := false
	push := &fakePushSender{
		deleteEndpointFn: func(ctx context.Context, endpointARN string) error {
			platformDeleted = true
			return nil
		},
	}

	svc := NewSubscriptionService(repo, push, zap.NewNop())
	if err := svc.Unregister(context.Background(), "user-1", arn); err != nil {
		t.Fatalf("Unregister() unexpected error = %v", err)
	}

	if deletedARN != arn {
		t.Fatalf("deleted arn = %s, want %s", deletedARN, arn)
	}
	if !platformDeleted {
		t.Fatal("platform endpoint was not deleted")
	}
}

func TestUnregisterPlatformFailureStillDeletesRow(t *testing.T) {
	t.Parallel()

	deleted := false
	repo := &fakeSubscriptionRepo{
		getByEndpointFn: func(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
			return &domain.PushSubscription{UserID: "user-1", EndpointARN: endpointARN}, nil
		},
		deleteByEndpointFn: func(ctx context.Context, endpointARN string) (bool, error) {
			deleted = true
			return true, nil
		},
	}
	push := &fakePushSender{
		deleteEndpointFn: func(ctx context.Context, endpointARN string) error {
			return errors.New("sns unreachable")
		},
	}

	svc := NewSubscriptionService(repo, push, zap.NewNop())
	if err := svc.Unregister(context.Background(), "user-1", "arn:endpoint"); err != nil {
		t.Fatalf("Unregister() unexpected error = %v", err)
	}
	if !deleted {
		t.Fatal("row was not deleted despite best-effort endpoint cleanup")
	}
}

func TestUnregisterUnknownEndpoint(t *testing.T) {
	t.Parallel()

	svc := NewSubscriptionService(&fakeSubscriptionRepo{}, &fakePushSender{}, zap.NewNop())
	if err := svc.Unregister(context.Background(), "user-1", "arn:missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Unregister() error = %v, want ErrNotFound", err)
	}
}

func TestUnregisterOtherUsersEndpoint(t *testing.T) {
	t.Parallel()

	repo := &fakeSubscriptionRepo{
		getByEndpointFn: func(ctx context.Context, endpointARN string) (*domain.PushSubscription, error) {
			return &domain.PushSubscription{UserID: "someone-else", EndpointARN: endpointARN}, nil
		},
	}

	svc := NewSubscriptionService(repo, &fakePushSender{}, zap.NewNop())
	if err := svc.Unregister(context.Background(), "user-1", "arn:endpoint"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Unregister() error = %v, want ErrNotFound", err)
	}
}
