package circle

import (
	"sort"

	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// requestCheck drains every WORK_REQUEST addressed to this peer without
// blocking, parking each sender in pendingRequesters, then dispatches
// one batched split across all of them. Splitting once across everyone
// waiting, rather than granting to each requester the moment it's seen,
// is what keeps the local share from collapsing under several
// simultaneous requesters: a chain of one-at-a-time halvings shrinks the
// local queue far faster than a single split computed over the whole
// batch.
func (p *Peer[T]) requestCheck() error {
	for {
		src, ok := p.tr.Probe(transport.AnySource, transport.WorkRequest)
		if !ok {
			break
		}
		payload, err := p.tr.Recv(src, transport.WorkRequest)
		if err != nil {
			return err
		}
		sig, err := wire.DecodeSignal(payload)
		if err != nil {
			return err
		}
		p.backoff.observedActivity()
		if sig == wire.Abort {
			p.Abort()
			break
		}
		p.pendingRequesters.Add(src)
	}
	return p.dispatchPending()
}

// satisfyPending re-evaluates pendingRequesters after Process or Create
// grows the local queue, using the same batched split as requestCheck.
func (p *Peer[T]) satisfyPending() error {
	return p.dispatchPending()
}

// dispatchPending answers every parked requester at once: a no-work
// reply to all of them while the queue is still empty, or a single
// batched split across all of them once it isn't.
func (p *Peer[T]) dispatchPending() error {
	if p.pendingRequesters.Cardinality() == 0 {
		return nil
	}
	if p.Len() == 0 {
		for _, dest := range p.pendingRequesters.ToSlice() {
			if err := p.sendZeroReply(dest); err != nil {
				return err
			}
		}
		p.pendingRequesters.Clear()
		return nil
	}
	return p.grantMany()
}

// grantMany splits the local queue across every parked requester in one
// pass: base = len(workq) / (R+1) items per party (self included), with
// the remainder handed one-per-requester to the first W mod (R+1) of
// them. Items are removed from the front of workq in requester order,
// leaving whatever's left at the tail as the local share.
func (p *Peer[T]) grantMany() error {
	dests := p.pendingRequesters.ToSlice()
	sort.Ints(dests)
	p.pendingRequesters.Clear()

	_, shares := splitMany(p.Len(), len(dests))

	offset := 0
	for i, dest := range dests {
		count := shares[i]
		if count == 0 {
			if err := p.sendZeroReply(dest); err != nil {
				return err
			}
			continue
		}
		share := p.workq[offset : offset+count]
		offset += count

		// A grant to a lower rank, or to our own token predecessor, can
		// let work "travel backward" in the ring. Either case requires
		// blackening so the termination token doesn't lap past it.
		if dest < p.rank || dest == p.tokenSrc {
			p.processColor = wire.Black
		}

		encoded := make([][]byte, len(share))
		for j, item := range share {
			b, err := p.code.Encode(item)
			if err != nil {
				return err
			}
			encoded[j] = b
		}

		countPayload, err := wire.EncodeCount(len(encoded))
		if err != nil {
			return err
		}
		if err := p.tr.Send(dest, transport.WorkReply, countPayload); err != nil {
			return err
		}
		itemsPayload, err := wire.EncodeItems(encoded)
		if err != nil {
			return err
		}
		if err := p.tr.Send(dest, transport.WorkReply, itemsPayload); err != nil {
			return err
		}

		p.localGranted++
		p.log.Debug("granted work", "dest", dest, "count", count)
	}
	p.setQueue(p.workq[offset:])
	return nil
}

func (p *Peer[T]) sendZeroReply(dest int) error {
	payload, err := wire.EncodeCount(0)
	if err != nil {
		return err
	}
	return p.tr.Send(dest, transport.WorkReply, payload)
}

// splitMany implements the equal-split rule for granting work to several
// simultaneous requesters in one pass: base = total / (numRequesters+1)
// items per party, self included, with the remainder handed one each to
// the first `total mod (numRequesters+1)` requesters. Self's kept share
// is exactly base, never topped up by the remainder. The "+1" in the
// denominator reserves that local share; when total is smaller than
// numRequesters+1, base is zero and every item goes to requesters.
func splitMany(total, numRequesters int) (keep int, shares []int) {
	if numRequesters == 0 {
		return total, nil
	}
	parties := numRequesters + 1
	base := total / parties
	rem := total % parties
	shares = make([]int, numRequesters)
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return base, shares
}
