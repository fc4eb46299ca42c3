package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
	"github.com/crmkit/lead-capture/internal/repository"
)

const defaultPollBatchLimit = 200

// PollFeed periodically scans the leads table for rows newer than its
// watermark. It backstops the push feed: anything missed while the
// pub/sub channel was down is picked up on the next scan.
type PollFeed struct {
	leadRepo repository.LeadRepository
	sink     chan<- Event
	interval time.Duration
	batch    int
	logger   *zap.Logger
	metrics  *observability.Metrics
	nowFn    func() time.Time

	mu        sync.RWMutex
	watermark time.Time
	started   bool
}

func NewPollFeed(
	leadRepo repository.LeadRepository,
	sink chan<- Event,
	interval time.Duration,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*PollFeed, error) {
	if leadRepo == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PollFeed{
		leadRepo: leadRepo,
		sink:     sink,
		interval: interval,
		batch:    defaultPollBatchLimit,
		logger:   logger,
		metrics:  metrics,
		nowFn:    time.Now,
	}, nil
}

// Watermark reports the latest creation timestamp already forwarded.
func (f *PollFeed) Watermark() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.watermark
}

func (f *PollFeed) setWatermark(t time.Time) {
	f.mu.Lock()
	f.watermark = t
	f.mu.Unlock()
}

// Start initializes the watermark, runs one immediate scan and then scans
// on every tick until ctx is canceled. Starting an already running feed
// is a no-op.
func (f *PollFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	f.initWatermark(ctx)

	f.logger.Info("poll feed started",
		zap.Duration("interval", f.interval),
		zap.Time("watermark", f.Watermark()),
	)

	f.scan(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("poll feed stopped")
			return nil
		case <-ticker.C:
			f.scan(ctx)
		}
	}
}

// initWatermark seeds the watermark with the newest existing lead so
// that startup never replays the whole table. An empty table, or a
// failed query, starts from the current time.
func (f *PollFeed) initWatermark(ctx context.Context) {
	latest, err := f.leadRepo.LatestCreatedAt(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			f.logger.Warn("watermark query failed, starting from now", zap.Error(err))
		}
		f.setWatermark(f.nowFn())
		return
	}
	f.setWatermark(latest)
}

// scan forwards every lead strictly newer than the watermark, in creation
// order, then advances the watermark. On failure the watermark stays put
// and the same rows are retried on the next tick.
func (f *PollFeed) scan(ctx context.Context) {
	since := f.Watermark()

	leads, err := f.leadRepo.CreatedAfter(ctx, since, f.batch)
	if err != nil {
		f.metrics.IncPollFailure()
		f.logger.Warn("poll scan failed, watermark unchanged",
			zap.Error(err),
			zap.Time("watermark", since),
		)
		return
	}

	if len(leads) == 0 {
		return
	}

	for i := range leads {
		select {
		case f.sink <- Event{Lead: leads[i], Feed: SourcePoll}:
		case <-ctx.Done():
			return
		}
	}

	newest := leads[len(leads)-1].CreatedAt
	f.setWatermark(newest)

	f.logger.Debug("poll scan forwarded leads",
		zap.Int("count", len(leads)),
		zap.Time("watermark", newest),
	)
}
