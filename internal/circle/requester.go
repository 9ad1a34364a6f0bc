package circle

import (
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// requestWork is called when the local queue is empty. It issues a
// WORK_REQUEST to a randomly chosen peer (never itself), unless a
// request is already outstanding, and otherwise polls for the reply to
// that outstanding request without blocking.
func (p *Peer[T]) requestWork() error {
	if p.requestOutstanding {
		return p.pollReply()
	}
	if p.size < 2 || p.Aborting() {
		return nil
	}
	target := p.rank
	for target == p.rank {
		target = p.rnd.Intn(p.size)
	}

	sig := wire.Normal
	if p.Aborting() {
		sig = wire.Abort
	}
	payload, err := wire.EncodeSignal(sig)
	if err != nil {
		return err
	}
	if err := p.tr.Send(target, transport.WorkRequest, payload); err != nil {
		return err
	}
	p.requestOutstanding = true
	p.requestedOfRank = target
	p.localRequested++
	return nil
}

// pollReply checks, without blocking, whether the peer we last asked for
// work has answered. A WORK_REPLY always arrives as two messages: a
// count, then (if count > 0) the items themselves.
func (p *Peer[T]) pollReply() error {
	src := p.requestedOfRank
	_, ok := p.tr.Probe(src, transport.WorkReply)
	if !ok {
		return nil
	}
	countPayload, err := p.tr.Recv(src, transport.WorkReply)
	if err != nil {
		return err
	}
	count, err := wire.DecodeCount(countPayload)
	if err != nil {
		return err
	}

	p.requestOutstanding = false
	p.requestedOfRank = -1

	if count == 0 {
		return nil
	}

	// The sender enqueues both the count and the items message before its
	// grant call returns, so by the time we observed the count above the
	// items message is already queued behind it.
	if _, ok := p.tr.Probe(src, transport.WorkReply); !ok {
		return ErrProtocolViolation
	}
	itemsPayload, err := p.tr.Recv(src, transport.WorkReply)
	if err != nil {
		return err
	}
	encoded, err := wire.DecodeItems(itemsPayload)
	if err != nil {
		return err
	}
	items := make([]T, len(encoded))
	for i, b := range encoded {
		item, err := p.code.Decode(b)
		if err != nil {
			return err
		}
		items[i] = item
	}
	p.EnqMany(items)
	return p.satisfyPending()
}
