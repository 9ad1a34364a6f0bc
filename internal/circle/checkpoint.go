package circle

import (
	"time"

	"github.com/vikramkhatri/pcircle/internal/wire"
)

// CheckpointSink persists a peer's serialized state. Snapshot is the
// RLP-encoded (workq, task-state) tuple produced by buildSnapshot; it is
// already self-describing, so a CheckpointSink only needs to get the
// bytes to stable storage keyed by rank.
type CheckpointSink interface {
	Save(rank int, snapshot []byte) error
}

// maybeCheckpoint fires the configured CheckpointSink if the interval
// has elapsed since the last checkpoint. It is called once per
// processed item, between items rather than mid-item, so a restored
// queue never re-processes a partially completed item.
func (p *Peer[T]) maybeCheckpoint() error {
	if p.checkpointSink == nil {
		return nil
	}
	now := time.Now()
	if p.lastCheckpoint.IsZero() {
		p.lastCheckpoint = now
	}
	if now.Sub(p.lastCheckpoint) < p.checkpointInterval {
		return nil
	}
	snap, err := p.buildSnapshot()
	if err != nil {
		return err
	}
	if err := p.checkpointSink.Save(p.rank, snap); err != nil {
		return err
	}
	p.lastCheckpoint = now
	p.emit(EventCheckpoint, p.Len())
	return nil
}

// checkpointNow saves the current snapshot unconditionally, ignoring the
// configured interval. Used when the driver is about to discard the
// queue on abort, so the interval gate never gets a chance to skip the
// one checkpoint that actually matters.
func (p *Peer[T]) checkpointNow() error {
	if p.checkpointSink == nil {
		return nil
	}
	snap, err := p.buildSnapshot()
	if err != nil {
		return err
	}
	if err := p.checkpointSink.Save(p.rank, snap); err != nil {
		return err
	}
	p.lastCheckpoint = time.Now()
	p.emit(EventCheckpoint, p.Len())
	return nil
}

// buildSnapshot encodes the current workq and any task-level state into
// the opaque bytes a CheckpointSink stores.
func (p *Peer[T]) buildSnapshot() ([]byte, error) {
	encoded := make([][]byte, len(p.workq))
	for i, item := range p.workq {
		b, err := p.code.Encode(item)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	var taskState []byte
	if snap, ok := p.task.(Snapshotter); ok {
		s, err := snap.CheckpointSnapshot()
		if err != nil {
			return nil, err
		}
		taskState = s
	}
	return wire.EncodeSnapshot(wire.Snapshot{
		Src:       uint64(p.tokenSrc),
		Dest:      uint64(p.tokenDest),
		WorkQueue: encoded,
		TaskState: taskState,
	})
}

// Restore replaces the local queue and any task-level state from a
// previously saved snapshot. It must be called before Begin. Restoring
// marks the peer as resumed, so Begin skips rank 0's Task.Create; the
// restored queue replaces the initial seed rather than adding to it.
func (p *Peer[T]) Restore(data []byte) error {
	tup, err := wire.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	items := make([]T, len(tup.WorkQueue))
	for i, b := range tup.WorkQueue {
		item, err := p.code.Decode(b)
		if err != nil {
			return err
		}
		items[i] = item
	}
	p.setQueue(items)
	if len(tup.TaskState) > 0 {
		if snap, ok := p.task.(Snapshotter); ok {
			if err := snap.RestoreSnapshot(tup.TaskState); err != nil {
				return err
			}
		}
	}
	p.resumed = true
	return nil
}
