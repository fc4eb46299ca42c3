package alert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/observability"
	"github.com/crmkit/lead-capture/internal/queue"
)

// Worker consumes the alert queue and performs the side effects. Alerts
// are best effort; a failed delivery is logged and acknowledged rather
// than requeued, so a dead push endpoint cannot back up the queue.
type Worker struct {
	consumer queue.Consumer
	pusher   Pusher
	logger   *zap.Logger
	metrics  *observability.Metrics
}

func NewWorker(
	consumer queue.Consumer,
	pusher Pusher,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*Worker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("queue consumer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		consumer: consumer,
		pusher:   pusher,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Start consumes alert messages until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("alert worker started", zap.String("queue", queue.AlertQueue))
	return w.consumer.Consume(ctx, queue.AlertQueue, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg queue.AlertMessage) error {
	switch msg.Kind {
	case queue.KindChime:
		w.chime(msg)
	case queue.KindDesktopPush:
		w.push(ctx, msg)
	default:
		w.logger.Warn("dropping alert with unknown kind",
			zap.String("kind", msg.Kind.String()),
			zap.String("notificationId", msg.NotificationID),
		)
	}
	return nil
}

// chime is the audible signal. In a headless deployment it surfaces as a
// structured log line that terminal bells or log watchers can hook.
func (w *Worker) chime(msg queue.AlertMessage) {
	w.logger.Info("chime",
		zap.String("notificationId", msg.NotificationID),
		zap.String("leadName", msg.LeadName),
		zap.String("source", msg.Source),
	)
}

func (w *Worker) push(ctx context.Context, msg queue.AlertMessage) {
	if w.pusher == nil {
		w.logger.Debug("desktop push skipped, no endpoint configured",
			zap.String("notificationId", msg.NotificationID),
		)
		return
	}

	if err := w.pusher.Send(ctx, msg); err != nil {
		w.metrics.IncAlertFailed(msg.Kind.String(), failureReason(err))
		w.logger.Warn("desktop push failed",
			zap.Error(err),
			zap.String("notificationId", msg.NotificationID),
			zap.Bool("transient", IsTransient(err)),
		)
		return
	}

	w.logger.Debug("desktop push delivered",
		zap.String("notificationId", msg.NotificationID),
	)
}

func failureReason(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
