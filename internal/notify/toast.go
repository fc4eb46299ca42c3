package notify

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
)

const defaultToastTTL = 8 * time.Second

// Presenter manages transient toasts. Every toast expires on its own
// after the TTL unless dismissed or activated first.
type Presenter struct {
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
	nowFn   func() time.Time

	mu     sync.Mutex
	toasts map[string]*toastEntry
	closed bool
}

type toastEntry struct {
	record domain.ToastRecord
	timer  *time.Timer
}

func NewPresenter(ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Presenter {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		nowFn:   time.Now,
		toasts:  make(map[string]*toastEntry),
	}
}

// Spawn creates a toast for an accepted notification and schedules its
// expiry. The toast id is independent of the notification id.
func (p *Presenter) Spawn(notification domain.NotificationRecord) domain.ToastRecord {
	record := domain.ToastRecord{
		ToastID:      uuid.NewString(),
		Notification: notification,
		SpawnedAt:    p.nowFn(),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return record
	}
	entry := &toastEntry{record: record}
	entry.timer = time.AfterFunc(p.ttl, func() { p.expire(record.ToastID) })
	p.toasts[record.ToastID] = entry
	count := len(p.toasts)
	p.mu.Unlock()

	p.metrics.SetActiveToasts(count)
	return record
}

// Dismiss removes a toast early. Dismissing an unknown or already
// expired toast is a no-op.
func (p *Presenter) Dismiss(toastID string) {
	p.remove(toastID)
}

// Activate dismisses the toast and returns the lead id to navigate to.
func (p *Presenter) Activate(toastID string) (string, error) {
	p.mu.Lock()
	entry, ok := p.toasts[toastID]
	p.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("toast %q: %w", toastID, domain.ErrNotFound)
	}

	p.remove(toastID)
	return entry.record.Notification.LeadID, nil
}

// Snapshot returns the live toasts ordered oldest first.
func (p *Presenter) Snapshot() []domain.ToastRecord {
	p.mu.Lock()
	out := make([]domain.ToastRecord, 0, len(p.toasts))
	for _, entry := range p.toasts {
		out = append(out, entry.record)
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].SpawnedAt.Before(out[j].SpawnedAt)
	})
	return out
}

// Close stops all expiry timers and drops every toast.
func (p *Presenter) Close() {
	p.mu.Lock()
	p.closed = true
	for id, entry := range p.toasts {
		entry.timer.Stop()
		delete(p.toasts, id)
	}
	p.mu.Unlock()

	p.metrics.SetActiveToasts(0)
}

func (p *Presenter) expire(toastID string) {
	if p.remove(toastID) {
		p.logger.Debug("toast expired", zap.String("toastId", toastID))
	}
}

func (p *Presenter) remove(toastID string) bool {
	p.mu.Lock()
	entry, ok := p.toasts[toastID]
	if ok {
		entry.timer.Stop()
		delete(p.toasts, toastID)
	}
	count := len(p.toasts)
	p.mu.Unlock()

	if ok {
		p.metrics.SetActiveToasts(count)
	}
	return ok
}
