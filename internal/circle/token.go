package circle

import (
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// checkForTerm advances this peer's part of the Dijkstra-Safra token
// ring. The driver calls it whenever the local queue is still empty
// after requestWork, whether or not a work request is outstanding; a
// request carries no work, and work sent in reply is covered by the
// colour rule grantMany applies on the sending side.
//
// Rank 0 is the launderer: it owns the decision of whether a lap with
// every peer white and the token itself white means real quiescence, as
// opposed to the initial, uncirculated token it starts holding. Every
// other rank just forwards, darkening the token if it has gone black
// since the last time it held it, then resets to white itself, per the
// classical rule that forwarding the token is the one event that may
// safely clear a peer's color.
func (p *Peer[T]) checkForTerm() (terminated bool, err error) {
	if !p.tokenHeld {
		if _, ok := p.tr.Probe(p.tokenSrc, transport.Token); !ok {
			return false, nil
		}
		payload, err := p.tr.Recv(p.tokenSrc, transport.Token)
		if err != nil {
			return false, err
		}
		color, err := wire.DecodeColor(payload)
		if err != nil {
			return false, err
		}
		p.backoff.observedActivity()
		if color == wire.Terminate {
			if p.rank != 0 {
				if err := p.forwardToken(wire.Terminate); err != nil {
					return false, err
				}
			}
			p.emit(EventTerminate, p.localProcessed)
			return true, nil
		}
		p.tokenHeld = true
		p.tokenColor = color
	}

	if p.rank == 0 {
		if !p.tokenFirstLap && p.processColor == wire.White && p.tokenColor == wire.White {
			p.tokenHeld = false
			p.emit(EventTerminate, p.localProcessed)
			return true, p.forwardToken(wire.Terminate)
		}
		p.tokenFirstLap = false
		p.tokenHeld = false
		out := p.processColor
		p.processColor = wire.White
		return false, p.forwardToken(out)
	}

	out := p.tokenColor
	if p.processColor == wire.Black {
		out = wire.Black
	}
	p.processColor = wire.White
	p.tokenHeld = false
	return false, p.forwardToken(out)
}

func (p *Peer[T]) forwardToken(color wire.Color) error {
	payload, err := wire.EncodeColor(color)
	if err != nil {
		return err
	}
	return p.tr.Send(p.tokenDest, transport.Token, payload)
}
