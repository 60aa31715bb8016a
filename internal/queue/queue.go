package queue

import (
	"context"

	"github.com/emrekoc/notifyq/internal/domain"
)

// Publisher publishes notification records to a durable queue with persistent
// delivery mode.
type Publisher interface {
	Publish(ctx context.Context, queue string, n *domain.Notification) error
	Close() error
}

// MessageHandler processes one decoded, invariant-checked notification.
// A nil return acknowledges the message; an error negatively acknowledges it
// with requeue. Undecodable or invariant-violating payloads never reach the
// handler; the consumer rejects them without requeue.
type MessageHandler func(ctx context.Context, n *domain.Notification) error

// Consumer consumes notification messages from a queue until the context is
// canceled, reconnecting on connection loss.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
