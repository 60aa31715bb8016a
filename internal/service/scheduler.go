package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
)

const (
	defaultSchedulerInterval = 5 * time.Second
	defaultSchedulerLimit    = 100
)

// Scheduler periodically promotes due SCHEDULED notifications onto the
// delivery queue. Publish happens before the status flip: a crash between the
// two replays the row on the next scan, which at-least-once delivery absorbs.
type Scheduler struct {
	repo      repository.NotificationRepository
	publisher queue.Publisher
	queueName string
	interval  time.Duration
	limit     int
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewScheduler(
	repo repository.NotificationRepository,
	publisher queue.Publisher,
	queueName string,
	interval time.Duration,
	limit int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	if limit <= 0 {
		limit = defaultSchedulerLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		repo:      repo,
		publisher: publisher,
		queueName: queueName,
		interval:  interval,
		limit:     limit,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Run blocks scanning for due notifications until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.ScanDue(ctx); err != nil {
				s.logger.Warn("scheduled scan failed", zap.Error(err))
			}
		}
	}
}

// ScanDue promotes one batch of due rows and reports only scan-level errors;
// per-row publish failures are logged and retried on the next tick.
func (s *Scheduler) ScanDue(ctx context.Context) error {
	due, err := s.repo.ListDue(ctx, domain.StatusScheduled, s.now().UTC(), s.limit)
	if err != nil {
		return err
	}

	promoted := 0
	for i := range due {
		n := &due[i]

		if err := s.publisher.Publish(ctx, s.queueName, n); err != nil {
			s.metrics.IncPublishFailure()
			s.logger.Warn("failed to publish scheduled notification",
				zap.String("notificationId", n.ID),
				zap.Error(err),
			)
			continue
		}

		ok, err := s.repo.MarkPendingIfScheduled(ctx, n.ID)
		if err != nil {
			s.logger.Warn("failed to promote scheduled notification",
				zap.String("notificationId", n.ID),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			// A concurrent scan got there first.
			s.logger.Debug("scheduled notification already promoted", zap.String("notificationId", n.ID))
			continue
		}

		promoted++
	}

	if promoted > 0 {
		s.metrics.AddScheduledPromoted(promoted)
		s.logger.Info("promoted scheduled notifications", zap.Int("count", promoted))
	}

	return nil
}
