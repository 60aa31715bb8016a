package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/provider"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
)

// ProcessingPipeline consumes queued notifications and drives each one to a
// terminal status. A returned error from ProcessMessage requeues the message;
// delivery failures are terminal and recorded as FAILED instead.
type ProcessingPipeline struct {
	consumer      queue.Consumer
	queueName     string
	notifications repository.NotificationRepository
	subscriptions repository.SubscriptionRepository
	email         provider.EmailSender
	sms           *provider.SMSDispatcher
	push          provider.PushSender
	metrics       *observability.Metrics
	logger        *zap.Logger
}

func NewProcessingPipeline(
	consumer queue.Consumer,
	queueName string,
	notifications repository.NotificationRepository,
	subscriptions repository.SubscriptionRepository,
	email provider.EmailSender,
	sms *provider.SMSDispatcher,
	push provider.PushSender,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ProcessingPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProcessingPipeline{
		consumer:      consumer,
		queueName:     queueName,
		notifications: notifications,
		subscriptions: subscriptions,
		email:         email,
		sms:           sms,
		push:          push,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run blocks consuming the queue until the context is canceled.
func (p *ProcessingPipeline) Run(ctx context.Context) error {
	return p.consumer.Consume(ctx, p.queueName, p.ProcessMessage)
}

// ProcessMessage handles one decoded notification. The stored row is the
// source of truth: the message payload only identifies the work.
func (p *ProcessingPipeline) ProcessMessage(ctx context.Context, n *domain.Notification) error {
	ctx = observability.WithCorrelationID(ctx, n.ID)
	logger := observability.WithContextLogger(p.logger, ctx)

	current, err := p.notifications.GetByID(ctx, n.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("dropping message for unknown notification", zap.String("notificationId", n.ID))
			return nil
		}
		return fmt.Errorf("failed to load notification %s: %w", n.ID, err)
	}

	// Redelivery guard: a row already delivered stays delivered.
	if current.Status == domain.StatusSent {
		logger.Info("skipping already sent notification", zap.String("notificationId", n.ID))
		return nil
	}

	start := time.Now()
	status, err := p.dispatch(ctx, current, logger)
	if err != nil {
		return err
	}
	p.metrics.ObserveDeliveryDuration(current.Channel.String(), time.Since(start))

	var retryCount *int
	if status == domain.StatusFailed {
		rc := current.RetryCount + 1
		retryCount = &rc
	}

	updated, err := p.notifications.UpdateStatus(ctx, current.ID, status, retryCount)
	if err != nil {
		return fmt.Errorf("failed to persist status %s for %s: %w", status, current.ID, err)
	}
	if !updated {
		logger.Warn("notification disappeared before status update",
			zap.String("notificationId", current.ID),
			zap.String("status", status.String()),
		)
		return nil
	}

	p.metrics.IncNotificationProcessed(current.Channel.String(), status.String())
	logger.Info("notification processed",
		zap.String("notificationId", current.ID),
		zap.String("channel", current.Channel.String()),
		zap.String("status", status.String()),
	)

	return nil
}

// dispatch attempts delivery and reports the terminal status. A non-nil error
// means the attempt could not be judged and the message must be requeued.
func (p *ProcessingPipeline) dispatch(ctx context.Context, n *domain.Notification, logger *zap.Logger) (domain.Status, error) {
	switch n.Channel {
	case domain.ChannelEmail:
		// The row is re-read from storage, so the recipient may have been
		// lost to a bad write even though the queued payload validated.
		if strings.TrimSpace(deref(n.RecipientEmail)) == "" {
			logger.Warn("email notification without recipient")
			return domain.StatusFailed, nil
		}
		if err := p.email.Send(ctx, deref(n.RecipientEmail), deref(n.Subject), n.MessageBody, deref(n.MessageHTML)); err != nil {
			logger.Warn("email delivery failed", zap.Error(err))
			return domain.StatusFailed, nil
		}
		return domain.StatusSent, nil

	case domain.ChannelSMS:
		if n.SMSProvider == nil {
			logger.Warn("sms notification without provider")
			return domain.StatusFailed, nil
		}
		if err := p.sms.Send(ctx, *n.SMSProvider, deref(n.RecipientPhone), n.MessageBody); err != nil {
			logger.Warn("sms delivery failed", zap.String("smsProvider", n.SMSProvider.String()), zap.Error(err))
			return domain.StatusFailed, nil
		}
		return domain.StatusSent, nil

	case domain.ChannelInApp:
		// In-app delivery has no transport yet; the row is parked in a stub
		// state a future in-app reader will consume.
		return domain.StatusProcessingStub, nil

	case domain.ChannelPushAndroid:
		return p.dispatchPush(ctx, n, logger)

	default:
		logger.Warn("unknown channel", zap.String("channel", n.Channel.String()))
		return domain.StatusFailed, nil
	}
}

// dispatchPush fans out over every enabled subscription of the target user.
// The notification is SENT only when every endpoint accepted the message.
func (p *ProcessingPipeline) dispatchPush(ctx context.Context, n *domain.Notification, logger *zap.Logger) (domain.Status, error) {
	subs, err := p.subscriptions.ListEnabledByUser(ctx, deref(n.UserID))
	if err != nil {
		return "", fmt.Errorf("failed to list push subscriptions for user %s: %w", deref(n.UserID), err)
	}
	if len(subs) == 0 {
		logger.Warn("no enabled push subscriptions", zap.String("userId", deref(n.UserID)))
		return domain.StatusFailed, nil
	}

	title := deref(n.PushTitle)
	if title == "" {
		title = deref(n.Subject)
	}

	results := make([]error, len(subs))
	var g errgroup.Group
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			results[i] = p.push.Send(ctx, sub.EndpointARN, title, n.MessageBody, n.PushData)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return errors

	status := domain.StatusSent
	for i, sendErr := range results {
		if sendErr == nil {
			continue
		}
		status = domain.StatusFailed

		logger.Warn("push delivery failed",
			zap.String("endpointArn", subs[i].EndpointARN),
			zap.Error(sendErr),
		)

		if errors.Is(sendErr, provider.ErrEndpointDisabled) {
			if _, disableErr := p.subscriptions.DisableByEndpoint(ctx, subs[i].EndpointARN); disableErr != nil {
				logger.Warn("failed to disable dead push subscription",
					zap.String("endpointArn", subs[i].EndpointARN),
					zap.Error(disableErr),
				)
			}
		}
	}

	return status, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
