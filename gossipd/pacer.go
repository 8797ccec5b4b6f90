package gossipd

// pumpLoop is the peer's broadcast pacer, spec.md §4.C: a pull loop over
// the graph's broadcast log indexed by broadcastCursor, woken by timer
// fires and by explicit wake() calls (new filter, new query, new local
// message to relay). Modeled as a pull loop rather than a callback on every
// log append, per spec.md §9's "staggered broadcast" design note, so a slow
// peer simply lags instead of back-pressuring the producer.
func (p *Peer) pumpLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case <-p.wakeCh:
			p.pumpStep()
		case <-p.pacedTimer.Ticks():
			p.pacedTimer.Pause()
			p.mu.Lock()
			p.timerArmed = false
			p.mu.Unlock()
			p.pumpStep()
		}
	}
}

// pumpStep performs the single step described in spec.md §4.C: at most one
// graph message (or one query-reply chunk) is produced per invocation.
func (p *Peer) pumpStep() {
	p.mu.Lock()
	hasQuery := p.scidQuery != nil
	timerArmed := p.timerArmed
	p.mu.Unlock()

	// Step 1: an inbound SCID query in progress preempts broadcasts and
	// is never paced by the broadcast-interval timer (spec.md §4.D
	// "SHOULD NOT wait for next gossip flush").
	if hasQuery {
		done := p.engine.emitNextSCIDQueryChunk(p)
		if !done {
			p.wake()
		}
		return
	}

	// Step 2: already waiting on the paced-out timer; nothing to do
	// until it fires.
	if timerArmed {
		return
	}

	// Step 3: the suppress-gossip developer toggle short-circuits
	// broadcast emission entirely (spec.md §4.C).
	if p.engine.cfg.SuppressGossip {
		p.armPacedTimer()
		return
	}

	p.mu.Lock()
	cursor, window := p.broadcastCursor, p.window
	p.mu.Unlock()

	if window.Empty() {
		p.armPacedTimer()
		return
	}

	entry, newCursor, ok := p.engine.cfg.Graph.NextBroadcast(
		cursor, window.TSMin, window.TSMax,
	)
	if !ok {
		p.armPacedTimer()
		return
	}

	p.mu.Lock()
	p.broadcastCursor = newCursor
	p.mu.Unlock()

	msg, err := decodeBroadcastEntry(entry)
	if err != nil {
		log.Errorf("unable to decode broadcast log entry %d: %v",
			entry.Index, err)
		p.armPacedTimer()
		return
	}

	p.queueMsg(msg, nil)
	p.armPacedTimer()
}

// armPacedTimer arms the one-shot paced-out timer for
// broadcast_interval_ms, per spec.md §4.C step 4.
func (p *Peer) armPacedTimer() {
	p.mu.Lock()
	p.timerArmed = true
	p.mu.Unlock()
	p.pacedTimer.Resume()
}
