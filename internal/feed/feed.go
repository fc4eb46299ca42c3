package feed

import "github.com/crmkit/lead-capture/internal/domain"

// Feed names, used as the event origin tag and as metric labels.
const (
	SourcePush = "push"
	SourcePoll = "poll"
)

// Event is a single lead sighting forwarded to the notification center.
// The same lead may be observed by both feeds; deduplication happens
// downstream, never here.
type Event struct {
	Lead domain.Lead
	Feed string
}

// Status describes the push feed's connection state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSubscribed   Status = "subscribed"
	StatusChannelError Status = "channel-error"
	StatusTimedOut     Status = "timed-out"
	StatusClosed       Status = "closed"
)

func (s Status) String() string { return string(s) }
