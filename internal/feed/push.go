package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
)

const (
	subscribeConfirmTimeout = 5 * time.Second
	channelErrorBackoff     = 5 * time.Second
	subscribeTimeoutBackoff = 3 * time.Second
)

// subscription is the subset of *redis.PubSub the push feed relies on.
type subscription interface {
	ReceiveTimeout(ctx context.Context, timeout time.Duration) (interface{}, error)
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

type subscribeFunc func(ctx context.Context, channel string) subscription

// PushFeed delivers leads in near real time over a Redis pub/sub channel.
// It reconnects forever on failure; a broken broker degrades the system to
// poll-only delivery, it never stops it.
type PushFeed struct {
	subscribe      subscribeFunc
	channel        string
	sink           chan<- Event
	logger         *zap.Logger
	metrics        *observability.Metrics
	confirmTimeout time.Duration
	errorBackoff   time.Duration
	timeoutBackoff time.Duration

	mu      sync.RWMutex
	status  Status
	started bool
}

func NewPushFeed(
	client *redis.Client,
	channel string,
	sink chan<- Event,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*PushFeed, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	subscribe := func(ctx context.Context, ch string) subscription {
		return client.Subscribe(ctx, ch)
	}
	return newPushFeed(subscribe, channel, sink, logger, metrics,
		subscribeConfirmTimeout, channelErrorBackoff, subscribeTimeoutBackoff)
}

func newPushFeed(
	subscribe subscribeFunc,
	channel string,
	sink chan<- Event,
	logger *zap.Logger,
	metrics *observability.Metrics,
	confirmTimeout, errorBackoff, timeoutBackoff time.Duration,
) (*PushFeed, error) {
	if subscribe == nil {
		return nil, fmt.Errorf("subscribe function is required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel name is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("event sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PushFeed{
		subscribe:      subscribe,
		channel:        channel,
		sink:           sink,
		logger:         logger,
		metrics:        metrics,
		confirmTimeout: confirmTimeout,
		errorBackoff:   errorBackoff,
		timeoutBackoff: timeoutBackoff,
		status:         StatusIdle,
	}, nil
}

// Status reports the current connection state.
func (f *PushFeed) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

func (f *PushFeed) setStatus(s Status) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

// Start subscribes and forwards messages until ctx is canceled. Failures
// are retried without limit; only cancellation ends the loop. Starting
// an already running feed is a no-op.
func (f *PushFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	defer f.setStatus(StatusClosed)

	var failureStreak int
	for {
		if ctx.Err() != nil {
			return nil
		}

		backoff, err := f.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			failureStreak = 0
			continue
		}

		failureStreak++
		f.logger.Warn("push feed connection lost, will resubscribe",
			zap.Error(err),
			zap.String("channel", f.channel),
			zap.String("status", f.Status().String()),
			zap.Int("failureStreak", failureStreak),
			zap.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

// runOnce performs one subscribe cycle and returns the backoff to apply
// before the next attempt when it fails.
func (f *PushFeed) runOnce(ctx context.Context) (time.Duration, error) {
	ps := f.subscribe(ctx, f.channel)
	defer ps.Close() //nolint:errcheck // best-effort close

	// The subscription is live only once the server confirms it. Treat a
	// missing confirmation the same as a slow broker and retry sooner than
	// on a hard channel failure.
	if _, err := ps.ReceiveTimeout(ctx, f.confirmTimeout); err != nil {
		f.setStatus(StatusTimedOut)
		f.metrics.IncFeedReconnect("subscribe_timeout")
		return f.timeoutBackoff, fmt.Errorf("subscribe confirmation: %w", err)
	}

	f.setStatus(StatusSubscribed)
	f.logger.Info("push feed subscribed", zap.String("channel", f.channel))

	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return 0, nil
		case msg, ok := <-messages:
			if !ok {
				f.setStatus(StatusChannelError)
				f.metrics.IncFeedReconnect("channel_closed")
				return f.errorBackoff, fmt.Errorf("pub/sub channel closed")
			}
			if err := f.forward(ctx, msg.Payload); err != nil {
				return 0, nil
			}
		}
	}
}

func (f *PushFeed) forward(ctx context.Context, payload string) error {
	var lead domain.Lead
	if err := json.Unmarshal([]byte(payload), &lead); err != nil {
		f.logger.Warn("push feed dropped malformed payload",
			zap.Error(err),
			zap.String("channel", f.channel),
		)
		return nil
	}

	select {
	case f.sink <- Event{Lead: lead, Feed: SourcePush}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
