package gossipd

import (
	"bytes"
	"fmt"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// dispatchInbound routes one message read off the wire to its handler,
// spec.md §4.B's per-message-type table. A returned *ProtocolError tears
// down the session (peer.isFatalToSession); any other error is reported to
// the peer but the connection survives, spec.md §7's severity-2/severity-3
// split.
func (d *Daemon) dispatchInbound(p *Peer, msg lnwire.Message) error {
	switch m := msg.(type) {
	case *lnwire.ChannelAnnouncement:
		return d.handleChannelAnnouncement(p, m)
	case *lnwire.NodeAnnouncement:
		return d.handleNodeAnnouncement(p, m)
	case *lnwire.ChannelUpdate:
		return d.handleChannelUpdate(p, m)
	case *lnwire.GossipTimestampFilter:
		return d.handleGossipTimestampFilter(p, m)
	case *lnwire.QueryShortChanIDs:
		return d.handleQueryShortChanIDs(p, m)
	case *lnwire.ReplyShortChanIDsEnd:
		return d.handleReplyShortChanIDsEnd(p, m)
	case *lnwire.QueryChannelRange:
		return d.handleQueryChannelRange(p, m)
	case *lnwire.ReplyChannelRange:
		return d.handleReplyChannelRange(p, m)
	case *lnwire.Ping:
		return d.handlePing(p, m)
	case *lnwire.Pong:
		return d.handlePong(p, m)
	case *lnwire.Error:
		log.Warnf("%v reported an error: %s", p, m.Data)
		return &ProtocolError{Reason: "peer sent error message"}
	default:
		return &ProtocolError{
			Reason: fmt.Sprintf("unhandled message type %T", msg),
		}
	}
}

// handleInboundError reports err back to the originating peer and, once a
// peer accumulates more than maxProtocolViolations errors of any kind
// (fatal or not), evicts it outright — the rate-limiting addition
// SPEC_FULL.md §7.3 documents on top of spec.md §7's per-message
// dispositions.
func (d *Daemon) handleInboundError(p *Peer, err error) {
	log.Debugf("%v: %v", p, err)
	p.sendError(err.Error())

	if p.recordViolation() {
		d.removePeer(p)
	}
}

// handleChannelAnnouncement validates a new channel's signatures and, if
// they check out, parks it awaiting funding-output confirmation rather than
// committing it to the graph directly (spec.md §4.B "If it returns an SCID
// to resolve, request its funding output from control"). The channel only
// actually joins the graph and broadcast log once
// HandlePendingChannelAnnouncement confirms it (see funding.go). A channel
// already known, or already awaiting confirmation, under the same short
// channel id is silently ignored, not an error.
func (d *Daemon) handleChannelAnnouncement(p *Peer, msg *lnwire.ChannelAnnouncement) error {
	if msg.ChainHash != d.cfg.ChainHash {
		return nil
	}
	if d.cfg.Graph.HasEdge(msg.ShortChannelID) {
		return nil
	}

	if err := graph.ValidateChannelAnnouncement(msg); err != nil {
		return fmt.Errorf("rejecting channel announcement for %v: %w",
			msg.ShortChannelID, err)
	}

	if !d.addPendingAnnouncement(msg) {
		return nil
	}

	if d.cfg.OnGossipGetTxOut != nil {
		d.cfg.OnGossipGetTxOut(msg.ShortChannelID)
	}
	return nil
}

// handleNodeAnnouncement validates and, if newer than what's on record,
// commits a node's self-announcement (spec.md §4.E "strictly monotonic
// timestamp").
func (d *Daemon) handleNodeAnnouncement(p *Peer, msg *lnwire.NodeAnnouncement) error {
	id := graph.NewNodeID(msg.NodeID)

	if existing, ok := d.cfg.Graph.Node(id); ok && existing.HaveNodeAnnouncement {
		if msg.Timestamp <= existing.LastUpdate {
			return nil
		}
	}

	if err := graph.ValidateNodeAnnouncement(msg); err != nil {
		return fmt.Errorf("rejecting node announcement for %x: %w", id[:8], err)
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize node announcement: %w", err)
	}

	n := &graph.LightningNode{
		PubKeyBytes:          id,
		HaveNodeAnnouncement: true,
		LastUpdate:           msg.Timestamp,
		Addresses:            msg.Addresses,
		Alias:                msg.Alias.String(),
		Color:                msg.RGBColor,
		Features:             msg.Features,
		AuthSig:              msg.Signature,
		RawAnnouncement:      msg,
	}
	if err := d.cfg.Graph.AddNode(n); err != nil {
		return fmt.Errorf("unable to store node announcement: %w", err)
	}

	if _, err := d.cfg.Graph.AppendBroadcast(msg.Timestamp, lnwire.MsgNodeAnnouncement, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log node announcement: %w", err)
	}

	d.wakeAllPeers()
	return nil
}

// handleChannelUpdate validates and, if newer than what's on record, commits
// one direction's routing policy for a channel (spec.md §4.B, §4.E). An
// update referencing a channel we haven't seen an announcement for is
// ignored (spec.md §7 "unannounced channel referenced").
func (d *Daemon) handleChannelUpdate(p *Peer, msg *lnwire.ChannelUpdate) error {
	if msg.ChainHash != d.cfg.ChainHash {
		return nil
	}

	edge, policies, ok := d.cfg.Graph.Edge(msg.ShortChannelID)
	if !ok {
		return nil
	}

	direction := msg.Direction()
	if existing := policies[direction]; existing != nil && msg.Timestamp <= existing.LastUpdate {
		return nil
	}

	signingKeyBytes := edge.NodeKey1Bytes
	if direction == 1 {
		signingKeyBytes = edge.NodeKey2Bytes
	}
	signingKey, err := btcecPubKey(signingKeyBytes)
	if err != nil {
		return fmt.Errorf("unable to parse signing key for %v: %w",
			msg.ShortChannelID, err)
	}

	if err := graph.ValidateChannelUpdate(signingKey, msg); err != nil {
		return fmt.Errorf("rejecting channel update for %v: %w",
			msg.ShortChannelID, err)
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize channel update: %w", err)
	}

	pol := &graph.ChannelEdgePolicy{
		ChannelID:                 msg.ShortChannelID,
		LastUpdate:                msg.Timestamp,
		Flags:                     msg.ChannelFlags,
		TimeLockDelta:             msg.TimeLockDelta,
		MinHTLC:                   msg.HtlcMinimumMsat,
		MaxHTLC:                   msg.HtlcMaximumMsat,
		FeeBaseMsat:               msg.BaseFee,
		FeeProportionalMillionths: msg.FeeRate,
		RawUpdate:                 msg,
	}
	if err := d.cfg.Graph.UpdatePolicy(pol); err != nil {
		return fmt.Errorf("unable to store channel update: %w", err)
	}

	if _, err := d.cfg.Graph.AppendBroadcast(msg.Timestamp, lnwire.MsgChannelUpdate, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log channel update: %w", err)
	}

	d.wakeAllPeers()
	return nil
}

// handleGossipTimestampFilter installs a fresh gossip window and rewinds the
// peer's broadcast cursor to the start of the log, so anything already
// accepted that falls inside the new window gets backfilled (spec.md §4.B).
func (d *Daemon) handleGossipTimestampFilter(p *Peer, msg *lnwire.GossipTimestampFilter) error {
	if msg.ChainHash != d.cfg.ChainHash {
		return nil
	}

	p.mu.Lock()
	p.window = newFilterWindow(msg.FirstTimestamp, msg.TimestampRange)
	p.broadcastCursor = 0
	p.mu.Unlock()

	p.wake()
	return nil
}

// handlePing answers with a Pong unless the request opts out of a reply
// (spec.md §4.F / BOLT1: num_pong_bytes >= 65532 means none is expected).
func (d *Daemon) handlePing(p *Peer, msg *lnwire.Ping) error {
	if msg.NumPongBytes >= lnwire.NoReplyThreshold {
		return nil
	}

	n := msg.NumPongBytes
	if n > lnwire.MaxPongBytes {
		n = lnwire.MaxPongBytes
	}
	p.queueMsg(&lnwire.Pong{PongBytes: make([]byte, n)}, nil)
	return nil
}

// handlePong matches an inbound pong against the peer's outstanding-ping
// counter; an unmatched pong is ignored rather than treated as a violation,
// since a ping just after eviction would otherwise spuriously disconnect the
// replacement session.
func (d *Daemon) handlePong(p *Peer, msg *lnwire.Pong) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outstandingPings > 0 {
		p.outstandingPings--
	}
	return nil
}

// wakeAllPeers nudges every connected peer's pump loop, used after
// committing a new graph message so peers with a compatible window don't
// wait for their timer to notice it.
func (d *Daemon) wakeAllPeers() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.peers {
		p.wake()
	}
}
