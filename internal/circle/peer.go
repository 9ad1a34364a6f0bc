// Package circle implements the reusable, task-agnostic work-stealing
// driver with Dijkstra-Safra token-ring termination detection that backs
// every job in this repository (tree walk, parallel copy, checksum
// verification). See SPEC_FULL.md for the full design.
package circle

import (
	"math/rand"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// barrierPhase tracks progress through the post-loop cleanup drain.
type barrierPhase int

const (
	barrierNotStarted barrierPhase = iota
	barrierStarted
	barrierDone
)

// Peer owns all mutable state for one rank's participation in a job.
// Every field is touched only by the owning peer's driver loop, except
// abortFlag, which Abort may set from a signal handler or another
// goroutine — the only concurrency the core allows outside the driver's
// single execution context (spec §5).
type Peer[T any] struct {
	tr   transport.Transport
	task Task[T]
	code Codec[T]
	log  log.Logger

	rank, size int

	workq []T

	processColor wire.Color // WHITE or BLACK

	tokenIsLocal     bool // true only for rank 0, the token launderer
	tokenHeld        bool // true while this peer physically holds the token
	tokenFirstLap    bool // rank 0 only: true until the first token has gone out
	tokenColor       wire.Color
	tokenSrc         int
	tokenDest        int
	tokenSendPending bool

	requestOutstanding bool
	requestedOfRank    int
	pendingRequesters  mapset.Set[int]

	abortFlag        atomic.Bool
	abortBroadcasted bool

	barrier barrierPhase

	rnd *rand.Rand

	events event.Feed

	// checkpoint scheduling, see checkpoint.go
	checkpointInterval time.Duration
	lastCheckpoint     time.Time
	checkpointSink     CheckpointSink

	backoff *backoff

	localProcessed int
	localRequested int
	localGranted   int

	resumed bool // true once Restore has loaded a prior checkpoint
}

// Option configures a Peer at construction time.
type Option[T any] func(*Peer[T])

// WithRandSource overrides the per-peer PRNG used for random-peer
// selection in request_work. Tests use this for deterministic schedules.
func WithRandSource[T any](r *rand.Rand) Option[T] {
	return func(p *Peer[T]) { p.rnd = r }
}

// WithCheckpoint enables periodic checkpointing via sink, at the given
// interval. See checkpoint.go.
func WithCheckpoint[T any](sink CheckpointSink, interval time.Duration) Option[T] {
	return func(p *Peer[T]) {
		p.checkpointSink = sink
		p.checkpointInterval = interval
	}
}

// NewPeer constructs a peer whose rank and cluster size come from tr,
// wired to tr for message passing, code for serializing work items, and
// task as the Task that Begin drives.
func NewPeer[T any](tr transport.Transport, code Codec[T], task Task[T], opts ...Option[T]) *Peer[T] {
	rank, size := tr.Rank(), tr.Size()
	p := &Peer[T]{
		tr:                tr,
		task:              task,
		code:              code,
		log:               log.New("rank", rank),
		rank:               rank,
		size:               size,
		processColor:       wire.White,
		tokenSrc:           (rank - 1 + size) % size,
		tokenDest:          (rank + 1) % size,
		pendingRequesters:  mapset.NewThreadUnsafeSet[int](),
		rnd:                rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(rank)*2654435761)),
		requestedOfRank:    -1,
		checkpointInterval: time.Duration(1<<63 - 1), // effectively disabled
	}
	p.backoff = newBackoff(250 * time.Millisecond)
	if rank == 0 {
		p.tokenIsLocal = true
		p.tokenHeld = true
		p.tokenFirstLap = true
		p.tokenColor = wire.White
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rank returns this peer's identity in [0, Size()).
func (p *Peer[T]) Rank() int { return p.rank }

// Size returns the number of peers in the job.
func (p *Peer[T]) Size() int { return p.size }

// Abort sets the monotonic local abort flag. It is safe to call from any
// goroutine (e.g. a SIGINT handler); the driver observes it on its next
// iteration and broadcasts it to every other peer.
func (p *Peer[T]) Abort() {
	if !p.abortFlag.Swap(true) {
		p.log.Warn("abort requested")
	}
}

// Aborting reports whether this peer has observed an abort, locally or
// from another peer.
func (p *Peer[T]) Aborting() bool { return p.abortFlag.Load() }

// Processed returns how many items this peer has run through Task.Process.
func (p *Peer[T]) Processed() int { return p.localProcessed }

// Granted returns how many work requests this peer has answered with at
// least one work item.
func (p *Peer[T]) Granted() int { return p.localGranted }
