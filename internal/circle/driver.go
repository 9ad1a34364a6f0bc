package circle

// Begin runs the work-stealing driver loop to completion: it seeds the
// workload (rank 0 only), processes local items, answers and issues
// work requests, circulates the termination token, and returns once the
// whole job has either drained globally or been cooperatively aborted.
//
// Begin is synchronous and single-threaded by design: it is the only
// goroutine that may touch this Peer's queue, color, or token state.
// Abort may be called concurrently from elsewhere; everything else may
// not.
func (p *Peer[T]) Begin() (Status, error) {
	if p.size == 0 {
		return StatusAborted, ErrNoPeers
	}
	if p.rank == 0 && !p.resumed {
		p.task.Create(p)
		if err := p.satisfyPending(); err != nil {
			return StatusAborted, err
		}
	}

	for {
		if p.Aborting() && !p.abortBroadcasted {
			if err := p.bcastAbort(); err != nil {
				return StatusAborted, err
			}
			p.abortBroadcasted = true
		}

		if err := p.requestCheck(); err != nil {
			return StatusAborted, err
		}

		switch {
		case p.Aborting() && p.Len() > 0:
			// Save whatever remains before abandoning it; it will be
			// re-driven by a future job restarted from this checkpoint,
			// not by this run.
			if err := p.checkpointNow(); err != nil {
				return StatusAborted, err
			}
			p.setQueue(nil)

		case p.Len() > 0:
			p.backoff.observedActivity()
			p.task.Process(p)
			p.localProcessed++
			if err := p.satisfyPending(); err != nil {
				return StatusAborted, err
			}
			if err := p.maybeCheckpoint(); err != nil {
				return StatusAborted, err
			}
			p.emit(EventProcessed, p.Len())

		default:
			lenBefore := p.requestOutstanding
			if err := p.requestWork(); err != nil {
				return StatusAborted, err
			}
			if p.requestOutstanding != lenBefore || p.Len() > 0 {
				p.backoff.observedActivity()
			}
			if p.Len() == 0 {
				done, err := p.checkForTerm()
				if err != nil {
					return StatusAborted, err
				}
				if done {
					if err := p.finish(); err != nil {
						return StatusAborted, err
					}
					if p.Aborting() {
						return StatusAborted, nil
					}
					return StatusTerminated, nil
				}
				p.backoff.idleRound()
			}
		}
	}
}

// finish runs a single post-termination drain (see cleanup) and returns.
// It does not wait for the other peers to reach this point; a
// WORK_REQUEST that arrives after it returns is not answered.
func (p *Peer[T]) finish() error {
	p.barrier = barrierStarted
	if err := p.cleanup(); err != nil {
		return err
	}
	p.barrier = barrierDone
	return nil
}
