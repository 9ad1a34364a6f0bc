package circle_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// memSink is a CheckpointSink that just remembers the last snapshot
// saved per rank, for assertions in tests.
type memSink struct {
	mu    sync.Mutex
	saves map[int][]byte
}

func newMemSink() *memSink { return &memSink{saves: make(map[int][]byte)} }

func (m *memSink) Save(rank int, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[rank] = snapshot
	return nil
}

// countingTask seeds n opaque items on rank 0 and records every item
// this whole run processes, across every rank, in a shared map guarded
// by a mutex — exactly the kind of coordination the test harness needs
// but a real Task never would, since Process always runs on a single
// goroutine per peer.
type countingTask struct {
	n int

	mu        *sync.Mutex
	processed map[string]int
}

func newCountingTask(n int, mu *sync.Mutex, processed map[string]int) *countingTask {
	return &countingTask{n: n, mu: mu, processed: processed}
}

func (t *countingTask) Create(p *circle.Peer[[]byte]) {
	for i := 0; i < t.n; i++ {
		p.Enq([]byte(fmt.Sprintf("item-%d", i)))
	}
}

func (t *countingTask) Process(p *circle.Peer[[]byte]) {
	item := p.Deq()
	t.mu.Lock()
	t.processed[string(item)]++
	t.mu.Unlock()
}

func runJob(t *testing.T, size, n int, seed int64) (map[string]int, []circle.Status) {
	t.Helper()
	trs := transport.NewMemNetwork(size)
	var mu sync.Mutex
	processed := make(map[string]int)

	peers := make([]*circle.Peer[[]byte], size)
	for i, tr := range trs {
		task := newCountingTask(n, &mu, processed)
		rnd := rand.New(rand.NewSource(seed + int64(i)))
		peers[i] = circle.NewPeer[[]byte](tr, circle.BytesCodec{}, task, circle.WithRandSource[[]byte](rnd))
	}

	statuses := make([]circle.Status, size)
	var wg sync.WaitGroup
	wg.Add(size)
	for i, p := range peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			status, err := p.Begin()
			require.NoError(t, err)
			statuses[i] = status
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("job did not terminate within timeout")
	}

	return processed, statuses
}

func TestDriverExactlyOnceAndTermination(t *testing.T) {
	for _, size := range []int{1, 2, 4, 8} {
		size := size
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			const n = 200
			processed, statuses := runJob(t, size, n, int64(size)*97+1)

			for _, s := range statuses {
				assert.Equal(t, circle.StatusTerminated, s)
			}
			assert.Len(t, processed, n, "every item should have been processed exactly once")
			for item, count := range processed {
				assert.Equal(t, 1, count, "item %q processed %d times", item, count)
			}
		})
	}
}

func TestDriverSinglePeerNoWork(t *testing.T) {
	processed, statuses := runJob(t, 1, 0, 1)
	assert.Empty(t, processed)
	assert.Equal(t, circle.StatusTerminated, statuses[0])
}

func TestAbortUnwindsCooperatively(t *testing.T) {
	const size = 4
	trs := transport.NewMemNetwork(size)
	var mu sync.Mutex
	processed := make(map[string]int)

	peers := make([]*circle.Peer[[]byte], size)
	for i, tr := range trs {
		task := newCountingTask(2000, &mu, processed)
		peers[i] = circle.NewPeer[[]byte](tr, circle.BytesCodec{}, task)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		peers[size-1].Abort()
	}()

	var wg sync.WaitGroup
	wg.Add(size)
	statuses := make([]circle.Status, size)
	for i, p := range peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			status, err := p.Begin()
			require.NoError(t, err)
			statuses[i] = status
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("aborted job did not unwind within timeout")
	}

	for _, s := range statuses {
		assert.Equal(t, circle.StatusAborted, s)
	}
}

func TestAbortCheckpointsBeforeDiscardingQueue(t *testing.T) {
	const size = 4
	trs := transport.NewMemNetwork(size)
	var mu sync.Mutex
	processed := make(map[string]int)
	sink := newMemSink()

	peers := make([]*circle.Peer[[]byte], size)
	for i, tr := range trs {
		task := newCountingTask(2000, &mu, processed)
		// A huge interval means the periodic checkpoint never fires on
		// its own; any save here can only have come from the abort path.
		peers[i] = circle.NewPeer[[]byte](tr, circle.BytesCodec{}, task, circle.WithCheckpoint[[]byte](sink, time.Hour))
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		peers[size-1].Abort()
	}()

	var wg sync.WaitGroup
	wg.Add(size)
	statuses := make([]circle.Status, size)
	for i, p := range peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			status, err := p.Begin()
			require.NoError(t, err)
			statuses[i] = status
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("aborted job did not unwind within timeout")
	}

	for _, s := range statuses {
		assert.Equal(t, circle.StatusAborted, s)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.saves, "expected at least one peer to checkpoint before discarding its queue on abort")

	foundNonEmpty := false
	for _, snap := range sink.saves {
		tup, err := wire.DecodeSnapshot(snap)
		require.NoError(t, err)
		if len(tup.WorkQueue) > 0 {
			foundNonEmpty = true
		}
	}
	assert.True(t, foundNonEmpty, "expected at least one checkpoint to capture unfinished work")
}
