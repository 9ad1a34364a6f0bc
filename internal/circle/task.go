package circle

// Task is the external collaborator the driver consumes. It owns all
// domain logic (file I/O, hashing, directory enumeration); the core only
// ever calls Create once, on rank 0, and Process once per non-empty
// workq iteration.
type Task[T any] interface {
	// Create seeds the initial workload. Called exactly once, on rank 0,
	// before the main loop starts. All other ranks start with an empty
	// queue. Create should enqueue items via Peer.Enq.
	Create(p *Peer[T])

	// Process consumes exactly one item from the queue via Peer.Deq and
	// may enqueue more via Peer.Enq. It must be synchronous and must not
	// block on the network; the driver treats a Process call as "one
	// work item consumed" regardless of what the task does internally.
	Process(p *Peer[T])
}

// Snapshotter is implemented by tasks that carry additional state beyond
// the work queue itself (for example PCP's byte-offset checksums) and
// want that state captured alongside a checkpoint.
type Snapshotter interface {
	CheckpointSnapshot() ([]byte, error)
	RestoreSnapshot([]byte) error
}

// Codec converts between a task's work-item type and the opaque byte
// strings the wire protocol and checkpoint format carry. Equal is used
// only by tests asserting exactly-once processing.
type Codec[T any] interface {
	Encode(item T) ([]byte, error)
	Decode(data []byte) (T, error)
	Equal(a, b T) bool
}

// BytesCodec is the identity Codec for tasks whose work items already are
// opaque byte strings.
type BytesCodec struct{}

func (BytesCodec) Encode(item []byte) ([]byte, error) { return item, nil }
func (BytesCodec) Decode(data []byte) ([]byte, error) { return data, nil }
func (BytesCodec) Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
