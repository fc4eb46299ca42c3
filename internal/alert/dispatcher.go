package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
	"github.com/crmkit/lead-capture/internal/queue"
)

const publishTimeout = 2 * time.Second

// Dispatcher gates and publishes alert side effects for accepted
// notifications. Delivery is fire and forget: a broken broker or a
// failed push is logged and swallowed, it never reaches the caller.
type Dispatcher struct {
	publisher queue.Publisher
	prefs     *Preferences
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func NewDispatcher(
	publisher queue.Publisher,
	prefs *Preferences,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*Dispatcher, error) {
	if prefs == nil {
		return nil, fmt.Errorf("preferences are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		publisher: publisher,
		prefs:     prefs,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Notify publishes the side effects allowed by the current preferences.
// It never panics and never blocks beyond the publish timeout.
func (d *Dispatcher) Notify(record domain.NotificationRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("alert dispatch panicked",
				zap.Any("panic", r),
				zap.String("notificationId", record.ID),
			)
		}
	}()

	if d.prefs.SoundEnabled() {
		d.publish(record, queue.KindChime)
	}
	if d.prefs.Permission() == PermissionGranted {
		d.publish(record, queue.KindDesktopPush)
	}
}

func (d *Dispatcher) publish(record domain.NotificationRecord, kind queue.AlertKind) {
	if d.publisher == nil {
		d.metrics.IncAlertFailed(kind.String(), "no_publisher")
		return
	}

	msg := queue.AlertMessage{
		NotificationID: record.ID,
		LeadID:         record.LeadID,
		LeadName:       record.LeadName,
		Source:         record.Source,
		Kind:           kind,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, queue.AlertQueue, msg); err != nil {
		d.metrics.IncAlertFailed(kind.String(), "publish")
		d.logger.Warn("failed to publish alert",
			zap.Error(err),
			zap.String("notificationId", record.ID),
			zap.String("kind", kind.String()),
		)
		return
	}

	d.metrics.IncAlertPublished(kind.String())
}
