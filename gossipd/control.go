package gossipd

import (
	"fmt"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// GetNodes returns every node currently known to the graph, the control
// dispatcher's getnodes command (spec.md §4.F).
func (d *Daemon) GetNodes() []*graph.LightningNode {
	var nodes []*graph.LightningNode
	d.cfg.Graph.ForEachNode(func(n *graph.LightningNode) error {
		nodes = append(nodes, n)
		return nil
	})
	return nodes
}

// GetChannels returns every channel currently known to the graph, the
// control dispatcher's getchannels command (spec.md §4.F).
func (d *Daemon) GetChannels() []*graph.ChannelEdgeInfo {
	var edges []*graph.ChannelEdgeInfo
	d.cfg.Graph.ForEachChannel(func(e *graph.ChannelEdgeInfo, _ [2]*graph.ChannelEdgePolicy) error {
		edges = append(edges, e)
		return nil
	})
	return edges
}

// GetRoute delegates to the graph's minimal pathfinder, the control
// dispatcher's getroute command (spec.md §4.F). fuzz and seed exist only to
// preserve the command's on-wire signature; the underlying router ignores
// them (see graph.GetRoute).
func (d *Daemon) GetRoute(dst graph.NodeID, amountMsat int64, riskFactor float64,
	finalCltvDelta uint16, fuzz float64, seed int64) ([]graph.Hop, error) {

	src := graph.NewNodeID(d.cfg.NodeID)
	return d.cfg.Graph.GetRoute(src, dst, amountMsat, riskFactor, finalCltvDelta, fuzz, seed)
}

// GetChannelPeer returns the two endpoints of scid, the control dispatcher's
// get_channel_peer command.
func (d *Daemon) GetChannelPeer(scid graph.ShortChanID) (graph.NodeID, graph.NodeID, error) {
	edge, _, ok := d.cfg.Graph.Edge(scid)
	if !ok {
		return graph.NodeID{}, graph.NodeID{}, fmt.Errorf("unknown channel %v", scid)
	}
	return edge.NodeKey1Bytes, edge.NodeKey2Bytes, nil
}

// GetIncomingChannels returns our public, enabled incoming half-channels as
// route hints, the control dispatcher's get_incoming_channels command
// (spec.md §4.F). A half-channel qualifies only if the channel itself has
// been announced (Public), the inbound direction (the counterparty's side,
// which is what an incoming payment traverses) carries a policy at all, and
// that policy is disabled neither locally nor at the graph level.
func (d *Daemon) GetIncomingChannels() []*graph.ChannelEdgeInfo {
	ownID := graph.NewNodeID(d.cfg.NodeID)

	var out []*graph.ChannelEdgeInfo
	d.cfg.Graph.ForEachChannel(func(e *graph.ChannelEdgeInfo, policies [2]*graph.ChannelEdgePolicy) error {
		if !e.Public {
			return nil
		}

		var inbound uint8
		switch ownID {
		case e.NodeKey1Bytes:
			inbound = 1
		case e.NodeKey2Bytes:
			inbound = 0
		default:
			return nil
		}

		pol := policies[inbound]
		if pol == nil || pol.LocalDisabled || pol.Disabled() {
			return nil
		}

		out = append(out, e)
		return nil
	})
	return out
}

// RoutingFailure forwards a reported runtime routing failure to the graph,
// the control dispatcher's routing_failure command (spec.md §4.F).
func (d *Daemon) RoutingFailure(scid graph.ShortChanID, reason string) {
	d.cfg.Graph.RoutingFailure(scid, reason)
}

// MarkChannelUnroutable forwards to the graph, the control dispatcher's
// mark_channel_unroutable command (spec.md §4.F).
func (d *Daemon) MarkChannelUnroutable(scid graph.ShortChanID) {
	d.cfg.Graph.MarkChannelUnroutable(scid)
}

// OutpointSpent forwards an on-chain funding-spend notification, the control
// dispatcher's outpoint_spent command (spec.md §4.E/§4.F).
func (d *Daemon) OutpointSpent(scid graph.ShortChanID) error {
	return d.OnFundingOutpointSpent(scid)
}

// LocalChannelClose forwards a local channel closure, the control
// dispatcher's local_channel_close command (spec.md §4.E/§4.F).
func (d *Daemon) LocalChannelClose(scid graph.ShortChanID, direction uint8) error {
	return d.OnLocalChannelClose(scid, direction)
}

// Ping issues a liveness ping to a connected peer, the control dispatcher's
// ping command. A requested length at or above 65532 bytes asks for no
// reply at all and never increments the outstanding-ping counter (spec.md
// §4.F, §8).
func (d *Daemon) Ping(peerID graph.NodeID, numPongBytes uint16) error {
	p, ok := d.Peer(peerID)
	if !ok {
		return fmt.Errorf("no live session for peer %x", peerID[:8])
	}

	if numPongBytes < lnwire.NoReplyThreshold {
		p.mu.Lock()
		p.outstandingPings++
		p.mu.Unlock()
	}

	p.queueMsg(&lnwire.Ping{NumPongBytes: numPongBytes}, nil)
	return nil
}

// QueryShortChannelIDs issues an outbound query_short_channel_ids to a
// connected peer, the control dispatcher's query_short_channel_ids command
// (spec.md §4.D, §4.F).
func (d *Daemon) QueryShortChannelIDs(peerID graph.NodeID, scids []lnwire.ShortChannelID) error {
	p, ok := d.Peer(peerID)
	if !ok {
		return fmt.Errorf("no live session for peer %x", peerID[:8])
	}

	encoded, err := lnwire.EncodeShortChanIDs(scids, d.cfg.maxSCIDEncodeSize())
	if err != nil {
		return fmt.Errorf("unable to encode short channel id query: %w", err)
	}

	p.mu.Lock()
	p.outstandingSCIDQueries++
	p.mu.Unlock()

	p.queueMsg(&lnwire.QueryShortChanIDs{
		ChainHash:    d.cfg.ChainHash,
		EncodedSCIDs: encoded,
	}, nil)
	return nil
}

// QueryChannelRange issues an outbound query_channel_range to a connected
// peer, the control dispatcher's query_channel_range command (spec.md §4.D,
// §4.F).
func (d *Daemon) QueryChannelRange(peerID graph.NodeID, first, num uint32) error {
	p, ok := d.Peer(peerID)
	if !ok {
		return fmt.Errorf("no live session for peer %x", peerID[:8])
	}
	return d.startChannelRangeQuery(p, first, num)
}

// SetSuppressGossip flips the developer toggle that short-circuits every
// peer's broadcast pump (spec.md §4.C, §4.F).
func (d *Daemon) SetSuppressGossip(suppress bool) {
	d.cfg.SuppressGossip = suppress
	d.wakeAllPeers()
}

// notifyControlSCIDQueryComplete reports the completion of an outbound SCID
// query to whatever control-layer observer is installed, if any.
func (d *Daemon) notifyControlSCIDQueryComplete(p *Peer, complete bool) {
	if d.OnSCIDQueryComplete != nil {
		d.OnSCIDQueryComplete(p, complete)
	}
}

// notifyControlChannelRangeComplete reports the completion of an outbound
// channel range query to whatever control-layer observer is installed, if
// any.
func (d *Daemon) notifyControlChannelRangeComplete(p *Peer, scids []lnwire.ShortChannelID) {
	if d.OnChannelRangeComplete != nil {
		d.OnChannelRangeComplete(p, scids)
	}
}
