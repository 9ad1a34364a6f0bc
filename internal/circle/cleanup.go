package circle

import "github.com/vikramkhatri/pcircle/internal/circle/transport"

// cleanup drains the work messages already queued for this peer once its
// driver loop has ended, whether by termination or abort. It answers
// every queued WORK_REQUEST with a zero reply instead of silently
// dropping it, discards every queued WORK_REPLY, and returns as soon as
// neither tag has a message waiting.
func (p *Peer[T]) cleanup() error {
	for {
		if src, ok := p.tr.Probe(transport.AnySource, transport.WorkRequest); ok {
			if _, err := p.tr.Recv(src, transport.WorkRequest); err != nil {
				return err
			}
			if err := p.sendZeroReply(src); err != nil {
				return err
			}
			continue
		}
		if src, ok := p.tr.Probe(transport.AnySource, transport.WorkReply); ok {
			if _, err := p.tr.Recv(src, transport.WorkReply); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}
