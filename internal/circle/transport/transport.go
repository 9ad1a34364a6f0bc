// Package transport implements the point-to-point message-passing layer
// peers use to exchange work requests, work replies, and termination
// tokens. It intentionally mirrors an MPI send/probe/recv surface rather
// than Go channels directly, so the driver in internal/circle never needs
// to know whether it is running in-process (tests) or across a real
// network (cmd/pcircle).
package transport

import "errors"

// Tag identifies the logical channel a message travels on. Messages
// between the same (sender, receiver, tag) triple are delivered in
// send order; there is no ordering guarantee across tags.
type Tag uint8

const (
	WorkRequest Tag = iota
	WorkReply
	Token
)

func (t Tag) String() string {
	switch t {
	case WorkRequest:
		return "WORK_REQUEST"
	case WorkReply:
		return "WORK_REPLY"
	case Token:
		return "TOKEN"
	default:
		return "UNKNOWN_TAG"
	}
}

// AnySource matches a message from any sender, for use with Probe.
const AnySource = -1

// ErrClosed is returned by Send after Close, and by Recv when no message
// is queued for the requested (source, tag) pair.
var ErrClosed = errors.New("transport: closed")

// Transport is the message-passing contract required by internal/circle.
// Send never blocks on the remote peer's matching receive: it enqueues the
// payload for asynchronous delivery, mirroring an MPI non-blocking send.
// Probe and Recv are always used together: a caller probes until a message
// is known present, then receives it, so Recv never blocks in practice.
type Transport interface {
	// Rank returns this peer's identity in [0, Size()).
	Rank() int

	// Size returns the number of peers in the job.
	Size() int

	// Send enqueues payload for delivery to dest on tag. It returns once
	// the payload is queued, not once it has been received.
	Send(dest int, tag Tag, payload []byte) error

	// Probe reports whether a message is available on tag from source
	// (or from any sender, if source is AnySource), returning the rank
	// that sent it.
	Probe(source int, tag Tag) (matchedSource int, ok bool)

	// Recv receives the oldest queued message from source on tag. Callers
	// must only call Recv after a successful Probe for the same
	// (source, tag) pair.
	Recv(source int, tag Tag) ([]byte, error)

	// Close releases the transport's resources. After Close, Send returns
	// ErrClosed; messages already queued for this peer can still be
	// probed and received.
	Close() error
}
