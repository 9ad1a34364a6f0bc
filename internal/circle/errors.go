package circle

import "errors"

// ErrProtocolViolation signals a message arrived in a state the protocol
// does not allow (for example, a token received while one is already
// held locally, or a non-zero WORK_REPLY count with no follow-up
// payload message). These are programmer errors in the transport or in
// a misbehaving peer, not something the driver can recover from.
var ErrProtocolViolation = errors.New("circle: protocol violation")

// ErrNoPeers is returned by Begin when size is zero.
var ErrNoPeers = errors.New("circle: peer set is empty")

// Status is the terminal outcome of a Peer's Begin call.
type Status int

const (
	// StatusTerminated means the job reached global quiescence normally.
	StatusTerminated Status = iota
	// StatusAborted means some peer called Abort and the job unwound
	// cooperatively instead of reaching quiescence.
	StatusAborted
)

func (s Status) String() string {
	if s == StatusAborted {
		return "aborted"
	}
	return "terminated"
}
