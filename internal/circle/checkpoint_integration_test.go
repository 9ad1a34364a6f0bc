package circle_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
)

// abortAfterNTask seeds 7 opaque items and calls Abort once it has
// processed n of them, freezing the remaining queue at a known point so
// the resulting checkpoint's contents are predictable.
type abortAfterNTask struct {
	n    int
	done int
}

func (t *abortAfterNTask) Create(p *circle.Peer[[]byte]) {
	for i := 0; i < 7; i++ {
		p.Enq([]byte(fmt.Sprintf("item-%d", i)))
	}
}

func (t *abortAfterNTask) Process(p *circle.Peer[[]byte]) {
	p.Deq()
	t.done++
	if t.done == t.n {
		p.Abort()
	}
}

// TestCheckpointRoundTripMatchesQueueAtCheckpointTime exercises testable
// property #6: restoring a peer from a checkpoint yields a workq equal
// to the snapshot at checkpoint time. It also exercises the abort path's
// unconditional checkpoint: with a single peer and no other rank to
// bcast to, the only way this snapshot gets written is the abort branch
// in Begin calling checkpointNow before discarding the queue.
func TestCheckpointRoundTripMatchesQueueAtCheckpointTime(t *testing.T) {
	trs := transport.NewMemNetwork(1)
	sink := newMemSink()
	task := &abortAfterNTask{n: 3}
	p := circle.NewPeer[[]byte](trs[0], circle.BytesCodec{}, task, circle.WithCheckpoint[[]byte](sink, time.Hour))

	status, err := p.Begin()
	require.NoError(t, err)
	require.Equal(t, circle.StatusAborted, status)

	sink.mu.Lock()
	snap, ok := sink.saves[0]
	sink.mu.Unlock()
	require.True(t, ok, "expected a checkpoint to have been saved on abort")

	restoreTrs := transport.NewMemNetwork(1)
	restored := circle.NewPeer[[]byte](restoreTrs[0], circle.BytesCodec{}, &abortAfterNTask{})
	require.NoError(t, restored.Restore(snap))

	want := []string{"item-3", "item-4", "item-5", "item-6"}
	require.Equal(t, len(want), restored.Len())
	for _, w := range want {
		require.Equal(t, w, string(restored.Deq()))
	}
}
