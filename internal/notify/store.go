package notify

import (
	"fmt"
	"sync"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
)

const defaultCapacity = 50

// Store holds the notification panel's records, newest first, bounded to
// a fixed capacity. The unread counter always equals the number of unread
// records currently held; evictions keep it consistent.
type Store struct {
	mu      sync.RWMutex
	cap     int
	records []domain.NotificationRecord
	unread  int
	metrics *observability.Metrics

	subMu   sync.Mutex
	subs    map[int]chan domain.NotificationRecord
	nextSub int
}

func NewStore(capacity int, metrics *observability.Metrics) *Store {
	if capacity < 1 {
		capacity = defaultCapacity
	}
	return &Store{
		cap:     capacity,
		metrics: metrics,
		subs:    make(map[int]chan domain.NotificationRecord),
	}
}

// Accept prepends a record and evicts the oldest entries beyond capacity.
func (s *Store) Accept(record domain.NotificationRecord) {
	s.mu.Lock()
	s.records = append([]domain.NotificationRecord{record}, s.records...)
	if !record.Read {
		s.unread++
	}
	for len(s.records) > s.cap {
		evicted := s.records[len(s.records)-1]
		s.records = s.records[:len(s.records)-1]
		if !evicted.Read {
			s.unread--
		}
	}
	unread := s.unread
	s.mu.Unlock()

	s.metrics.SetUnreadNotifications(unread)
	s.notifySubscribers(record)
}

// Snapshot returns a copy of the current records, newest first.
func (s *Store) Snapshot() []domain.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NotificationRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// MarkRead marks a single record as read. Marking an already-read record
// is a no-op.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		if !s.records[i].Read {
			s.records[i].Read = true
			s.unread--
			s.metrics.SetUnreadNotifications(s.unread)
		}
		return nil
	}
	return fmt.Errorf("notification %q: %w", id, domain.ErrNotFound)
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	for i := range s.records {
		s.records[i].Read = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.metrics.SetUnreadNotifications(0)
}

// ClearAll drops every record. It does not reset delivery deduplication;
// a cleared lead will not reappear.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.records = nil
	s.unread = 0
	s.mu.Unlock()

	s.metrics.SetUnreadNotifications(0)
}

// Subscribe returns a buffered channel receiving every accepted record
// and a cancel function. Slow subscribers miss records instead of
// blocking acceptance.
func (s *Store) Subscribe() (<-chan domain.NotificationRecord, func()) {
	ch := make(chan domain.NotificationRecord, 16)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notifySubscribers(record domain.NotificationRecord) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- record:
		default:
		}
	}
}
