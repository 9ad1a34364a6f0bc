package circle

// Enq appends an item to the tail of the local work queue. Tasks call
// this from Create and Process to seed or grow the workload.
func (p *Peer[T]) Enq(item T) {
	p.workq = append(p.workq, item)
}

// EnqMany appends a batch of items, preserving order.
func (p *Peer[T]) EnqMany(items []T) {
	p.workq = append(p.workq, items...)
}

// Deq removes and returns the item at the head of the local work queue.
// It panics if the queue is empty; callers must check Len first, which
// the driver always does before calling Process.
func (p *Peer[T]) Deq() T {
	item := p.workq[0]
	p.workq = p.workq[1:]
	return item
}

// Len reports the number of items currently queued locally.
func (p *Peer[T]) Len() int { return len(p.workq) }

// setQueue replaces the queue wholesale, used by checkpoint restore, by
// grantMany to drop the items it has handed out, and by the driver to
// discard the queue on abort.
func (p *Peer[T]) setQueue(items []T) {
	p.workq = items
}
