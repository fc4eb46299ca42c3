package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crmkit/lead-capture/internal/domain"
)

type fakeSubscription struct {
	confirmErr error
	messages   chan *redis.Message
	closed     bool
}

func (s *fakeSubscription) ReceiveTimeout(ctx context.Context, timeout time.Duration) (interface{}, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	return &redis.Subscription{Kind: "subscribe"}, nil
}

func (s *fakeSubscription) Channel(opts ...redis.ChannelOption) <-chan *redis.Message {
	return s.messages
}

func (s *fakeSubscription) Close() error {
	s.closed = true
	return nil
}

func leadPayload(t *testing.T, lead domain.Lead) string {
	t.Helper()
	b, err := json.Marshal(lead)
	if err != nil {
		t.Fatalf("marshal lead: %v", err)
	}
	return string(b)
}

func TestPushFeedForwardsMessages(t *testing.T) {
	t.Parallel()

	sub := &fakeSubscription{messages: make(chan *redis.Message, 2)}
	subscribe := func(ctx context.Context, channel string) subscription { return sub }

	sink := make(chan Event, 2)
	f, err := newPushFeed(subscribe, "leads.inserted", sink, nil, nil,
		time.Second, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("newPushFeed() error = %v", err)
	}

	lead := domain.Lead{ID: "lead-1", FullName: "Jane Doe", Source: domain.SourceWebsiteAPI}
	sub.messages <- &redis.Message{Channel: "leads.inserted", Payload: leadPayload(t, lead)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Start(ctx)
	}()

	select {
	case ev := <-sink:
		if ev.Lead.ID != "lead-1" {
			t.Errorf("lead id = %s, want lead-1", ev.Lead.ID)
		}
		if ev.Feed != SourcePush {
			t.Errorf("feed = %s, want %s", ev.Feed, SourcePush)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}

	if got := f.Status(); got != StatusSubscribed {
		t.Fatalf("status = %s, want %s", got, StatusSubscribed)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop on cancel")
	}

	if got := f.Status(); got != StatusClosed {
		t.Fatalf("status after stop = %s, want %s", got, StatusClosed)
	}
}

func TestPushFeedSubscribeTimeoutRetries(t *testing.T) {
	t.Parallel()

	attempts := make(chan struct{}, 8)
	subscribe := func(ctx context.Context, channel string) subscription {
		attempts <- struct{}{}
		return &fakeSubscription{confirmErr: errors.New("confirmation timed out")}
	}

	sink := make(chan Event, 1)
	f, err := newPushFeed(subscribe, "leads.inserted", sink, nil, nil,
		10*time.Millisecond, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("newPushFeed() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Start(ctx)
	}()

	// Unbounded retry: the feed must keep attempting to subscribe.
	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected subscribe attempt %d", i+1)
		}
	}

	if got := f.Status(); got != StatusTimedOut {
		t.Fatalf("status = %s, want %s", got, StatusTimedOut)
	}

	cancel()
	<-done
}

func TestPushFeedChannelClosedMarksError(t *testing.T) {
	t.Parallel()

	closed := make(chan *redis.Message)
	close(closed)
	first := true
	subscribe := func(ctx context.Context, channel string) subscription {
		if first {
			first = false
			return &fakeSubscription{messages: closed}
		}
		return &fakeSubscription{messages: make(chan *redis.Message)}
	}

	sink := make(chan Event, 1)
	f, err := newPushFeed(subscribe, "leads.inserted", sink, nil, nil,
		time.Second, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("newPushFeed() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Start(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for f.Status() != StatusChannelError {
		select {
		case <-deadline:
			t.Fatalf("status = %s, want %s", f.Status(), StatusChannelError)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestPushFeedDropsMalformedPayload(t *testing.T) {
	t.Parallel()

	sub := &fakeSubscription{messages: make(chan *redis.Message, 2)}
	subscribe := func(ctx context.Context, channel string) subscription { return sub }

	sink := make(chan Event, 2)
	f, err := newPushFeed(subscribe, "leads.inserted", sink, nil, nil,
		time.Second, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("newPushFeed() error = %v", err)
	}

	sub.messages <- &redis.Message{Channel: "leads.inserted", Payload: "{not json"}
	lead := domain.Lead{ID: "lead-2", FullName: "John Roe"}
	sub.messages <- &redis.Message{Channel: "leads.inserted", Payload: leadPayload(t, lead)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Start(ctx) }()

	select {
	case ev := <-sink:
		if ev.Lead.ID != "lead-2" {
			t.Fatalf("lead id = %s, want lead-2 (malformed payload should be skipped)", ev.Lead.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for valid event")
	}
}

func TestPushFeedStartTwice(t *testing.T) {
	t.Parallel()

	sub := &fakeSubscription{messages: make(chan *redis.Message)}
	subscribe := func(ctx context.Context, channel string) subscription { return sub }

	sink := make(chan Event, 1)
	f, err := newPushFeed(subscribe, "leads.inserted", sink, nil, nil,
		time.Second, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("newPushFeed() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for f.Status() != StatusSubscribed {
		select {
		case <-deadline:
			t.Fatal("feed never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := f.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v, want no-op", err)
	}
	if got := f.Status(); got != StatusSubscribed {
		t.Fatalf("status = %s after redundant start, want %s", got, StatusSubscribed)
	}
}
