package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emrekoc/notifyq/internal/domain"
	"github.com/emrekoc/notifyq/internal/observability"
	"github.com/emrekoc/notifyq/internal/queue"
	"github.com/emrekoc/notifyq/internal/repository"
)

// txRunner is the slice of *gorm.DB the ingest path needs.
type txRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// IngestService accepts notifications, persists them, and hands immediately
// deliverable ones to the queue. The insert and the publish share one
// transaction: a failed publish rolls the row back so no notification exists
// in storage without a matching queue message.
type IngestService struct {
	db        txRunner
	repo      repository.NotificationRepository
	publisher queue.Publisher
	queueName string
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewIngestService(
	db txRunner,
	repo repository.NotificationRepository,
	publisher queue.Publisher,
	queueName string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestService{
		db:        db,
		repo:      repo,
		publisher: publisher,
		queueName: queueName,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *IngestService) Enqueue(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: notification is required", domain.ErrValidation)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Status = domain.InitialStatus(n.SendAt, now)
	n.RetryCount = 0
	n.CreatedAt = now
	n.UpdatedAt = now

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, n); err != nil {
			return err
		}

		// Scheduled rows are picked up later; only immediately deliverable
		// work goes on the queue now.
		if n.Status != domain.StatusPending {
			return nil
		}

		if err := s.publisher.Publish(ctx, s.queueName, n); err != nil {
			s.metrics.IncPublishFailure()
			return fmt.Errorf("%w: queue publish failed: %v", domain.ErrUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncNotificationAccepted(n.Channel.String())
	s.logger.Info("notification accepted",
		zap.String("notificationId", n.ID),
		zap.String("channel", n.Channel.String()),
		zap.String("status", n.Status.String()),
	)

	return n, nil
}

func (s *IngestService) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid notification id %q", domain.ErrValidation, id)
	}
	return s.repo.GetByID(ctx, id)
}
