package gossipd

import (
	"net"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/graph"
)

// NewPeerConn wires up a freshly authenticated connection into a new Peer
// session, the connect dispatcher's new_peer command (spec.md §4.G). Any
// existing session for the same node id is evicted first.
func (d *Daemon) NewPeerConn(pubKey *btcec.PublicKey, gossipQueriesFeature,
	initialRoutingSyncFeature bool, conn net.Conn) *Peer {

	return d.AddPeer(
		graph.NewNodeID(pubKey), pubKey,
		gossipQueriesFeature, initialRoutingSyncFeature,
		NewConnStream(conn),
	)
}

// NewPeerStream is the same as NewPeerConn but takes an already-constructed
// Stream, used by tests to install an in-memory transport.
func (d *Daemon) NewPeerStream(pubKey *btcec.PublicKey, gossipQueriesFeature,
	initialRoutingSyncFeature bool, stream Stream) *Peer {

	return d.AddPeer(
		graph.NewNodeID(pubKey), pubKey,
		gossipQueriesFeature, initialRoutingSyncFeature, stream,
	)
}

// GetAddrs returns the announcable addresses this node advertises in its own
// node_announcement, the connect dispatcher's get_addrs command (spec.md
// §4.G).
func (d *Daemon) GetAddrs() []net.Addr {
	return d.cfg.Addresses
}

// DisconnectPeer tears down the live session for id, if any, the connect
// dispatcher's disconnect command. Destruction also clears any outstanding
// query state the peer held (spec.md §5) and, per spec.md §4.E, disables
// the local half-channels that pointed at it — both side effects live in
// removePeer itself, since it is the one teardown path every disconnect
// route (stream death, protocol eviction, or this explicit command) runs
// through.
func (d *Daemon) DisconnectPeer(id graph.NodeID) {
	p, ok := d.Peer(id)
	if !ok {
		return
	}
	d.removePeer(p)
}
