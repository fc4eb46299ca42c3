package queue

import "context"

const (
	// AlertQueue carries chime and desktop-push alert messages.
	AlertQueue = "alerts"
	// AlertDLQ receives alert messages rejected as malformed.
	AlertDLQ = "dlq.alerts"
)

// Publisher publishes alert messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg AlertMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg AlertMessage) error

// Consumer consumes alert messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
