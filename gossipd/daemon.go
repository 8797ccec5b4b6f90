package gossipd

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/lightningnetwork/lnd/ticker"
)

// Daemon is the orchestrator tying peer sessions, the channel graph, and the
// local-channel and keep-alive policies together, spec.md §4.H. It is the
// "engine" field every Peer holds a non-owning reference to.
type Daemon struct {
	cfg *Config

	mu    sync.Mutex
	peers map[graph.NodeID]*Peer

	// pendingMu and pending hold channel_announcements whose signatures
	// are valid but whose funding output hasn't been confirmed yet
	// (spec.md §4.B, §6's gossip_get_txout/handle_pending_cannouncement
	// round trip). See funding.go.
	pendingMu sync.Mutex
	pending   map[graph.ShortChanID]*lnwire.ChannelAnnouncement

	sweepTicker ticker.Ticker

	// OnSCIDQueryComplete and OnChannelRangeComplete are optional hooks
	// the control layer (or a test) installs to observe the completion
	// of an outbound query this engine issued, spec.md §4.F's "forward
	// completion to control".
	OnSCIDQueryComplete    func(p *Peer, complete bool)
	OnChannelRangeComplete func(p *Peer, scids []lnwire.ShortChannelID)

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewDaemon constructs an engine around cfg. Call Start to begin the
// keep-alive sweep.
func NewDaemon(cfg *Config) *Daemon {
	return &Daemon{
		cfg:         cfg,
		peers:       make(map[graph.NodeID]*Peer),
		pending:     make(map[graph.ShortChanID]*lnwire.ChannelAnnouncement),
		sweepTicker: ticker.New(cfg.PruneTimeout() / 4),
		quit:        make(chan struct{}),
	}
}

// Start launches the keep-alive/prune sweep loop (spec.md §4.E, §6). Before
// doing so it marks every local channel local_disabled, spec.md §4.E "On
// init: mark every local channel local_disabled = true (no peers are
// connected yet)."
func (d *Daemon) Start() {
	d.disableAllLocalChannelsOnInit()

	d.sweepTicker.Resume()
	d.wg.Add(1)
	go d.sweepLoop()
}

// disableAllLocalChannelsOnInit flips local_disabled on every half-channel
// we're an endpoint of, without touching the graph-level flag or emitting
// an update — spec.md §4.E's startup rule, mirroring
// disableLocalChannelsWithPeer's no-broadcast semantics.
func (d *Daemon) disableAllLocalChannelsOnInit() {
	ownID := graph.NewNodeID(d.cfg.NodeID)
	d.cfg.Graph.ForEachChannel(func(e *graph.ChannelEdgeInfo, pair [2]*graph.ChannelEdgePolicy) error {
		var direction uint8
		switch ownID {
		case e.NodeKey1Bytes:
			direction = 0
		case e.NodeKey2Bytes:
			direction = 1
		default:
			return nil
		}
		if pair[direction] == nil || pair[direction].LocalDisabled {
			return nil
		}
		if err := d.cfg.Graph.SetLocalDisabled(e.ChannelID, direction, true); err != nil {
			log.Errorf("unable to disable local channel %v at startup: %v",
				e.ChannelID, err)
		}
		return nil
	})
}

// Stop tears down every peer session and the sweep loop.
func (d *Daemon) Stop() {
	close(d.quit)
	d.sweepTicker.Stop()

	d.mu.Lock()
	peers := make([]*Peer, 0, len(d.peers))
	for id, p := range d.peers {
		peers = append(peers, p)
		delete(d.peers, id)
	}
	d.mu.Unlock()

	// Peers are removed from the map before being stopped so a peer's own
	// readLoop/writeLoop noticing the closed stream mid-shutdown finds
	// removePeer a no-op instead of racing this loop's p.stop() to tear
	// down the same outgoingQueue twice.
	for _, p := range peers {
		p.stop()
	}

	d.wg.Wait()
}

// AddPeer installs a freshly connected peer, evicting any existing session
// for the same node id first (spec.md §3: "opening a new session for an
// existing id evicts the old one").
func (d *Daemon) AddPeer(id graph.NodeID, pubKey *btcec.PublicKey,
	gossipQueriesFeature, initialRoutingSyncFeature bool, stream Stream) *Peer {

	d.mu.Lock()
	old, hadOld := d.peers[id]
	if hadOld {
		delete(d.peers, id)
	}

	p := newPeer(d, id, pubKey, gossipQueriesFeature, initialRoutingSyncFeature, stream)
	d.peers[id] = p
	d.mu.Unlock()

	// old is deleted from the map before being stopped, same reasoning as
	// Stop(): if its own readLoop/writeLoop concurrently notices the
	// closing stream and calls removePeer, it finds the entry already
	// gone and no-ops instead of racing this call to stop the same
	// outgoingQueue twice.
	if hadOld {
		d.disableLocalChannelsWithPeer(id)
		old.stop()
	}

	p.start()
	return p
}

// removePeer tears down and forgets p. It is idempotent: a peer already
// removed (or replaced by a newer session under the same id) is a no-op.
// Safe to call from one of p's own read/write/pump goroutines: the final
// join against p.wg happens on a separate goroutine, since a peer's own
// loop can't block waiting for its own exit.
//
// This is the one teardown path every stream-death and eviction route runs
// through (readLoop/writeLoop on a dead stream, a *ProtocolError eviction,
// and DisconnectPeer all call it), so it carries spec.md §3/§4.E's
// destruction side effect itself: "destroyed when its stream closes or is
// freed; on destruction all its channels with us are flagged
// local_disabled."
func (d *Daemon) removePeer(p *Peer) {
	d.mu.Lock()
	cur, ok := d.peers[p.id]
	if !ok || cur != p {
		d.mu.Unlock()
		return
	}
	delete(d.peers, p.id)
	d.mu.Unlock()

	d.disableLocalChannelsWithPeer(p.id)

	p.signalQuit()
	go func() {
		p.wg.Wait()
		p.outgoingQueue.Stop()
	}()
}

// disableLocalChannelsWithPeer flips local_disabled on every half-channel
// we share with id, without generating or broadcasting a fresh
// channel_update (spec.md §4.E/§9's original source: disconnection "does
// not send out updates since that's triggered by the peer connection
// closing" — the update itself is regenerated lazily, by the keep-alive
// sweep or a GET_UPDATE request noticing the disagreement).
func (d *Daemon) disableLocalChannelsWithPeer(id graph.NodeID) {
	ownID := graph.NewNodeID(d.cfg.NodeID)
	d.cfg.Graph.ForEachChannel(func(e *graph.ChannelEdgeInfo, pair [2]*graph.ChannelEdgePolicy) error {
		var direction uint8
		switch {
		case ownID == e.NodeKey1Bytes && id == e.NodeKey2Bytes:
			direction = 0
		case ownID == e.NodeKey2Bytes && id == e.NodeKey1Bytes:
			direction = 1
		default:
			return nil
		}
		if pair[direction] == nil || pair[direction].LocalDisabled {
			return nil
		}
		if err := d.cfg.Graph.SetLocalDisabled(e.ChannelID, direction, true); err != nil {
			log.Errorf("unable to disable local channel %v after peer "+
				"disconnect: %v", e.ChannelID, err)
		}
		return nil
	})
}

// Peer returns the live session for id, if any.
func (d *Daemon) Peer(id graph.NodeID) (*Peer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.peers[id]
	return p, ok
}

// PeerCount reports the number of live sessions.
func (d *Daemon) PeerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}

func (d *Daemon) sweepLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case <-d.sweepTicker.Ticks():
			d.runKeepAliveSweep()
		}
	}
}

// btcecPubKey parses a graph.NodeID back into a public key, used wherever a
// stored identity needs to be handed to a signature-verification call.
func btcecPubKey(id graph.NodeID) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(id[:])
	if err != nil {
		return nil, fmt.Errorf("invalid node public key %x: %w", id[:8], err)
	}
	return pub, nil
}
