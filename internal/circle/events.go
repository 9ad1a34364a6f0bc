package circle

import "github.com/ethereum/go-ethereum/event"

// EventKind classifies a status Event emitted by the driver loop. These
// replace the stub reduce()/progress-reporting hooks of the original
// implementation with a real, subscribable feed.
type EventKind int

const (
	EventProcessed EventKind = iota
	EventCheckpoint
	EventAbort
	EventTerminate
)

func (k EventKind) String() string {
	switch k {
	case EventProcessed:
		return "processed"
	case EventCheckpoint:
		return "checkpoint"
	case EventAbort:
		return "abort"
	case EventTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Event is a single status notification from a peer's driver loop.
type Event struct {
	Rank  int
	Kind  EventKind
	Count int // queue length at time of EventProcessed, or similar
}

// Events returns a feed callers can subscribe to for progress, abort, and
// termination notifications. Subscribing is optional; the driver never
// blocks waiting for a subscriber to drain the channel beyond the normal
// event.Feed fan-out semantics.
func (p *Peer[T]) Events() *event.Feed {
	return &p.events
}

func (p *Peer[T]) emit(kind EventKind, count int) {
	p.events.Send(Event{Rank: p.rank, Kind: kind, Count: count})
}
