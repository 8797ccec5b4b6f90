package gossipd

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"
)

// outgoingQueueLen is the internal buffer size of the peer's outgoing
// concurrent queue, the same pattern and constant name as
// _examples/backend-engineer1-land/peer.go's outgoingQueue.
const outgoingQueueLen = 50

// outgoingMsg pairs a message with an optional completion signal, mirroring
// _examples/backend-engineer1-land/peer.go's outgoinMsg (buffered channel
// used as a semaphore).
type outgoingMsg struct {
	msg  lnwire.Message
	done chan struct{}
}

// Peer is the per-connection session record spec.md §3 describes. Its
// reference back to the engine is non-owning (spec.md §9 design note): the
// engine owns the Peer, not the other way around.
type Peer struct {
	// id is the remote node's identity; unique per live session (spec.md
	// §3: "opening a new session for an existing id evicts the old
	// one").
	id     graph.NodeID
	pubKey *btcec.PublicKey

	gossipQueriesFeature      bool
	initialRoutingSyncFeature bool

	stream Stream
	engine *Daemon

	mu sync.Mutex

	broadcastCursor uint64
	window          GossipWindow

	scidQuery *scidQueryState
	rangeQuery *channelRangeQuery

	outstandingSCIDQueries int
	outstandingPings       int

	violations int

	pacedTimer ticker.Ticker
	timerArmed bool

	wakeCh   chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	outgoingQueue *queue.ConcurrentQueue

	wg sync.WaitGroup
}

// newPeer constructs the initial session state for a freshly connected
// peer, per spec.md §4.B "Initial state on new peer".
func newPeer(engine *Daemon, id graph.NodeID, pubKey *btcec.PublicKey,
	gossipQueriesFeature, initialRoutingSyncFeature bool,
	stream Stream) *Peer {

	p := &Peer{
		id:                        id,
		pubKey:                    pubKey,
		gossipQueriesFeature:      gossipQueriesFeature,
		initialRoutingSyncFeature: initialRoutingSyncFeature,
		stream:                    stream,
		engine:                    engine,
		pacedTimer:                ticker.New(engine.cfg.BroadcastInterval),
		wakeCh:                    make(chan struct{}, 1),
		quit:                      make(chan struct{}),
		outgoingQueue:             queue.NewConcurrentQueue(outgoingQueueLen),
	}

	if gossipQueriesFeature {
		// Sends nothing until the peer installs a filter.
		p.broadcastCursor = maxUint64
		p.window = emptyWindow
	} else {
		p.window = fullWindow
		if initialRoutingSyncFeature {
			p.broadcastCursor = 0
		} else {
			p.broadcastCursor = engine.cfg.Graph.BroadcastTip()
		}
	}

	return p
}

const maxUint64 = ^uint64(0)

// start launches the peer's read loop, write loop, and broadcast pump, and
// (for gossip_queries peers) sends the opening
// gossip_timestamp_filter(chain, 0, 2^32-1) spec.md §4.B describes.
func (p *Peer) start() {
	p.outgoingQueue.Start()

	p.wg.Add(3)
	go p.readLoop()
	go p.writeLoop()
	go p.pumpLoop()

	if p.gossipQueriesFeature {
		p.queueMsg(&lnwire.GossipTimestampFilter{
			ChainHash:      p.engine.cfg.ChainHash,
			FirstTimestamp: 0,
			TimestampRange: 0xFFFFFFFF,
		}, nil)
	}
}

// queueMsg enqueues msg for asynchronous delivery, same non-blocking-enqueue
// contract as the teacher's peer.queueMsg.
func (p *Peer) queueMsg(msg lnwire.Message, done chan struct{}) {
	select {
	case p.outgoingQueue.ChanIn() <- outgoingMsg{msg, done}:
	case <-p.quit:
		if done != nil {
			close(done)
		}
	}
}

// wake schedules an immediate pump step without blocking if one is already
// pending (spec.md §4.B/§4.C "wake the broadcast pacer").
func (p *Peer) wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// signalQuit tears down the peer's transport and cancels its paced-out
// timer, idempotently. Safe to call from any of the peer's own goroutines,
// unlike stop: it never blocks on p.wg, so a read/write/pump loop can use it
// to unwind itself without joining on its own completion.
func (p *Peer) signalQuit() {
	p.quitOnce.Do(func() {
		close(p.quit)
		p.stream.Close()
		p.pacedTimer.Stop()
	})
}

// stop tears down the peer's goroutines and releases its transport,
// blocking until all three have exited (spec.md §5: destruction cancels the
// paced-out timer and abandons any outstanding inbound SCID query or
// outbound channel-range query). Must only be called from outside the
// peer's own read/write/pump goroutines — calling it from one of those
// would wait on its own exit.
func (p *Peer) stop() {
	p.signalQuit()
	p.wg.Wait()
	p.outgoingQueue.Stop()
}

func (p *Peer) readLoop() {
	defer p.wg.Done()
	for {
		msg, err := p.stream.Recv()
		if err != nil {
			p.engine.removePeer(p)
			return
		}
		if err := p.engine.dispatchInbound(p, msg); err != nil {
			p.engine.handleInboundError(p, err)
			if isFatalToSession(err) {
				p.engine.removePeer(p)
				return
			}
		}
	}
}

func (p *Peer) writeLoop() {
	defer p.wg.Done()
	for {
		select {
		case raw := <-p.outgoingQueue.ChanOut():
			out := raw.(outgoingMsg)
			err := p.stream.Send(out.msg)
			if out.done != nil {
				close(out.done)
			}
			if err != nil {
				p.engine.removePeer(p)
				return
			}
		case <-p.quit:
			return
		}
	}
}

// isFatalToSession reports whether err should tear down the connection
// (spec.md §7 severity-2 ProtocolError) as opposed to merely being
// forwarded to the peer (severity-3 graph rejection) or ignored.
func isFatalToSession(err error) bool {
	_, ok := err.(*ProtocolError)
	return ok
}

// sendError queues a wire Error addressed to the whole connection,
// spec.md §7's disposition for both severity-2 and severity-3 errors.
func (p *Peer) sendError(reason string) {
	p.queueMsg(lnwire.NewGlobalError(reason), nil)
}

// recordViolation counts a protocol violation toward the eviction
// threshold, SPEC_FULL.md §7.3's rate-limiting addition. It does not
// change spec.md §7's first-violation disconnect behavior, since the
// caller independently decides to tear down the session on a
// *ProtocolError. The counter lives on this Peer and starts at zero for
// every new session, so it bounds the errors of one session, not repeats
// across reconnections.
func (p *Peer) recordViolation() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.violations++
	return p.violations > maxProtocolViolations
}

func (p *Peer) String() string {
	return fmt.Sprintf("peer(%x)", p.id[:8])
}
