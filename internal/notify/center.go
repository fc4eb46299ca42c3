package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/feed"
	"github.com/crmkit/lead-capture/internal/observability"
)

const defaultEventBuffer = 256

// Alerter triggers the side effects for an accepted notification.
type Alerter interface {
	Notify(record domain.NotificationRecord)
}

// Center is the single convergence point for both feeds. It consumes
// events from one goroutine, so the seen-set needs no locking beyond the
// snapshot accessor. Exactly one notification exists per lead identity
// no matter how many times or through which feeds the lead arrives.
type Center struct {
	events  chan feed.Event
	store   *Store
	toasts  *Presenter
	alerter Alerter
	logger  *zap.Logger
	metrics *observability.Metrics
	nowFn   func() time.Time

	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewCenter(
	store *Store,
	toasts *Presenter,
	alerter Alerter,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*Center, error) {
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	if toasts == nil {
		return nil, fmt.Errorf("toast presenter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Center{
		events:  make(chan feed.Event, defaultEventBuffer),
		store:   store,
		toasts:  toasts,
		alerter: alerter,
		logger:  logger,
		metrics: metrics,
		nowFn:   time.Now,
		seen:    make(map[string]struct{}),
	}, nil
}

// Sink is the channel both feeds write their events into.
func (c *Center) Sink() chan<- feed.Event {
	return c.events
}

// Run drains the event channel until ctx is canceled.
func (c *Center) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Center) handle(ev feed.Event) {
	leadID := ev.Lead.ID
	if leadID == "" {
		// A lead without an identity can never be matched against a
		// later sighting, so it is always treated as fresh.
		c.accept(ev)
		return
	}

	c.mu.Lock()
	if _, dup := c.seen[leadID]; dup {
		c.mu.Unlock()
		c.metrics.IncNotificationDuplicate(ev.Feed)
		c.logger.Debug("duplicate lead sighting suppressed",
			zap.String("leadId", leadID),
			zap.String("feed", ev.Feed),
		)
		return
	}
	c.seen[leadID] = struct{}{}
	c.mu.Unlock()

	c.accept(ev)
}

func (c *Center) accept(ev feed.Event) {
	record := domain.NewNotificationRecord(uuid.NewString(), ev.Lead, c.nowFn())

	c.store.Accept(record)
	c.toasts.Spawn(record)
	if c.alerter != nil {
		c.alerter.Notify(record)
	}

	c.metrics.IncNotificationAccepted(ev.Feed)
	c.logger.Info("notification accepted",
		zap.String("notificationId", record.ID),
		zap.String("leadId", record.LeadID),
		zap.String("leadName", record.LeadName),
		zap.String("feed", ev.Feed),
	)
}

// SeenCount reports how many distinct lead identities have been accepted.
func (c *Center) SeenCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}
