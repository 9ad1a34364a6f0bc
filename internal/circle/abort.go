package circle

import (
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// bcastAbort tells every other peer to abort, the first time this peer
// observes its own abort flag set. It rides the WORK_REQUEST tag with
// an ABORT signal rather than opening a fourth tag: every peer already
// probes WORK_REQUEST on every driver iteration, so an ABORT-tagged
// request is observed at least as fast as a normal one and needs no new
// wiring in the transport layer.
func (p *Peer[T]) bcastAbort() error {
	payload, err := wire.EncodeSignal(wire.Abort)
	if err != nil {
		return err
	}
	for dest := 0; dest < p.size; dest++ {
		if dest == p.rank {
			continue
		}
		if err := p.tr.Send(dest, transport.WorkRequest, payload); err != nil {
			return err
		}
	}
	p.emit(EventAbort, p.localProcessed)
	return nil
}
