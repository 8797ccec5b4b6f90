package gossipd

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// RegenerateNodeAnnouncement rebuilds and signs this node's own
// node_announcement from the current config and commits it to the graph,
// spec.md §4.E. If force is false and the new content is identical to what's
// already on record, the regeneration is skipped as redundant.
func (d *Daemon) RegenerateNodeAnnouncement(force bool) error {
	id := graph.NewNodeID(d.cfg.NodeID)

	existing, ok := d.cfg.Graph.Node(id)

	ts := uint32(d.cfg.Clock.Now().Unix())
	if ok && existing.HaveNodeAnnouncement && ts <= existing.LastUpdate {
		ts = existing.LastUpdate + 1
	}

	msg := &lnwire.NodeAnnouncement{
		Features:  d.cfg.GlobalFeatures,
		Timestamp: ts,
		NodeID:    d.cfg.NodeID,
		RGBColor:  d.cfg.RGB,
		Alias:     d.cfg.Alias,
		Addresses: d.cfg.Addresses,
	}

	if !force && ok && existing.HaveNodeAnnouncement && existing.RawAnnouncement != nil &&
		existing.RawAnnouncement.SameContent(msg) {
		return nil
	}

	digest, err := msg.DataToSign()
	if err != nil {
		return fmt.Errorf("unable to build node announcement digest: %w", err)
	}
	sig, err := d.cfg.Signer.SignNodeAnnouncement(chainhash.DoubleHashB(digest))
	if err != nil {
		return &SignerError{Cause: err}
	}
	msg.Signature, err = lnwire.NewSigFromSignature(sig)
	if err != nil {
		return &SignerError{Cause: err}
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize node announcement: %w", err)
	}

	n := &graph.LightningNode{
		PubKeyBytes:          id,
		HaveNodeAnnouncement: true,
		LastUpdate:           ts,
		Addresses:            d.cfg.Addresses,
		Alias:                d.cfg.Alias.String(),
		Color:                d.cfg.RGB,
		Features:             d.cfg.GlobalFeatures,
		AuthSig:              msg.Signature,
		RawAnnouncement:      msg,
	}
	if err := d.cfg.Graph.AddNode(n); err != nil {
		return fmt.Errorf("unable to store node announcement: %w", err)
	}
	if _, err := d.cfg.Graph.AppendBroadcast(ts, lnwire.MsgNodeAnnouncement, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log node announcement: %w", err)
	}

	d.wakeAllPeers()
	return nil
}

// RegenerateChannelUpdate rebuilds and signs a fresh channel_update for one
// of our local half-channels, bumping its timestamp strictly forward from
// whatever is currently on record (spec.md §4.E "Enforce strictly monotonic
// timestamp"). disabled overrides the disable bit; every other field is
// copied from the channel's current policy.
func (d *Daemon) RegenerateChannelUpdate(scid graph.ShortChanID, direction uint8, disabled bool) error {
	edge, policies, ok := d.cfg.Graph.Edge(scid)
	if !ok {
		return &InvariantViolation{
			Reason: fmt.Sprintf("keep-alive requested for unknown channel %v", scid),
		}
	}

	cur := policies[direction]
	if cur == nil {
		return &InvariantViolation{
			Reason: fmt.Sprintf("keep-alive requested for %v with no prior policy on direction %d",
				scid, direction),
		}
	}

	ts := uint32(d.cfg.Clock.Now().Unix())
	if ts <= cur.LastUpdate {
		ts = cur.LastUpdate + 1
	}

	flags := direction & uint8(lnwire.ChanUpdateDirection)
	if disabled {
		flags |= uint8(lnwire.ChanUpdateDisabled)
	}

	msg := &lnwire.ChannelUpdate{
		ChainHash:       d.cfg.ChainHash,
		ShortChannelID:  scid,
		Timestamp:       ts,
		ChannelFlags:    flags,
		TimeLockDelta:   cur.TimeLockDelta,
		HtlcMinimumMsat: cur.MinHTLC,
		BaseFee:         cur.FeeBaseMsat,
		FeeRate:         cur.FeeProportionalMillionths,
		HtlcMaximumMsat: cur.MaxHTLC,
	}

	digest, err := msg.DataToSign()
	if err != nil {
		return fmt.Errorf("unable to build channel update digest: %w", err)
	}
	sig, err := d.cfg.Signer.SignChannelUpdate(chainhash.DoubleHashB(digest))
	if err != nil {
		return &SignerError{Cause: err}
	}
	msg.Signature, err = lnwire.NewSigFromSignature(sig)
	if err != nil {
		return &SignerError{Cause: err}
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize channel update: %w", err)
	}

	pol := &graph.ChannelEdgePolicy{
		ChannelID:                 scid,
		LastUpdate:                ts,
		Flags:                     flags,
		TimeLockDelta:             cur.TimeLockDelta,
		MinHTLC:                   cur.MinHTLC,
		MaxHTLC:                   cur.MaxHTLC,
		FeeBaseMsat:               cur.FeeBaseMsat,
		FeeProportionalMillionths: cur.FeeProportionalMillionths,
		LocalDisabled:             cur.LocalDisabled,
		RawUpdate:                 msg,
	}
	if err := d.cfg.Graph.UpdatePolicy(pol); err != nil {
		return fmt.Errorf("unable to store channel update: %w", err)
	}
	if _, err := d.cfg.Graph.AppendBroadcast(ts, lnwire.MsgChannelUpdate, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log channel update: %w", err)
	}

	_ = edge // edge is only consulted for its existence above
	d.wakeAllPeers()
	return nil
}

// HandleLocalAddChannel registers a new private half-channel we control and
// signs and commits its first channel_update, spec.md §4.E/§6's
// handle_local_add_channel. Unlike RegenerateChannelUpdate, there is no
// prior policy to copy parameters from, so the caller supplies the initial
// routing parameters directly. The channel starts unannounced (Public:
// false); it only becomes public if a channel_announcement for the same
// scid is later validated and funding-confirmed via
// HandlePendingChannelAnnouncement. A scid already present in the graph is
// left untouched, not an error.
func (d *Daemon) HandleLocalAddChannel(scid graph.ShortChanID, peer *btcec.PublicKey,
	direction uint8, capacity int64, timeLockDelta uint16, minHTLC, maxHTLC uint64,
	feeBaseMsat, feeProportionalMillionths uint32) error {

	if d.cfg.Graph.HasEdge(scid) {
		return nil
	}

	ownID := graph.NewNodeID(d.cfg.NodeID)
	peerID := graph.NewNodeID(peer)

	edge := &graph.ChannelEdgeInfo{
		ChannelID: scid,
		Capacity:  capacity,
		Public:    false,
	}
	if direction == 0 {
		edge.NodeKey1Bytes, edge.NodeKey2Bytes = ownID, peerID
	} else {
		edge.NodeKey1Bytes, edge.NodeKey2Bytes = peerID, ownID
	}
	if err := d.cfg.Graph.AddEdge(edge); err != nil {
		return fmt.Errorf("unable to store local channel %v: %w", scid, err)
	}

	ts := uint32(d.cfg.Clock.Now().Unix())

	msg := &lnwire.ChannelUpdate{
		ChainHash:       d.cfg.ChainHash,
		ShortChannelID:  scid,
		Timestamp:       ts,
		ChannelFlags:    direction & uint8(lnwire.ChanUpdateDirection),
		TimeLockDelta:   timeLockDelta,
		HtlcMinimumMsat: minHTLC,
		HtlcMaximumMsat: maxHTLC,
		BaseFee:         feeBaseMsat,
		FeeRate:         feeProportionalMillionths,
	}

	digest, err := msg.DataToSign()
	if err != nil {
		return fmt.Errorf("unable to build channel update digest: %w", err)
	}
	sig, err := d.cfg.Signer.SignChannelUpdate(chainhash.DoubleHashB(digest))
	if err != nil {
		return &SignerError{Cause: err}
	}
	msg.Signature, err = lnwire.NewSigFromSignature(sig)
	if err != nil {
		return &SignerError{Cause: err}
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize channel update: %w", err)
	}

	pol := &graph.ChannelEdgePolicy{
		ChannelID:                 scid,
		LastUpdate:                ts,
		Flags:                     msg.ChannelFlags,
		TimeLockDelta:             timeLockDelta,
		MinHTLC:                   minHTLC,
		MaxHTLC:                   maxHTLC,
		FeeBaseMsat:               feeBaseMsat,
		FeeProportionalMillionths: feeProportionalMillionths,
		RawUpdate:                 msg,
	}
	if err := d.cfg.Graph.UpdatePolicy(pol); err != nil {
		return fmt.Errorf("unable to store channel update: %w", err)
	}
	if _, err := d.cfg.Graph.AppendBroadcast(ts, lnwire.MsgChannelUpdate, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log channel update: %w", err)
	}

	d.wakeAllPeers()

	if err := d.RegenerateNodeAnnouncement(false); err != nil {
		log.Errorf("unable to regenerate node announcement after local "+
			"channel add for %v: %v", scid, err)
	}
	return nil
}

// HandleGetUpdate answers a peer's GET_UPDATE for one of our half-channels,
// spec.md §4.E: "GET_UPDATE arrived from peer and our local_disabled
// disagrees with the graph's disabled flag ⇒ regenerate before replying."
// When the two already agree there's nothing to do; the existing update is
// whatever the caller replies with.
func (d *Daemon) HandleGetUpdate(scid graph.ShortChanID, direction uint8) error {
	_, policies, ok := d.cfg.Graph.Edge(scid)
	if !ok {
		return &InvariantViolation{
			Reason: fmt.Sprintf("GET_UPDATE requested for unknown channel %v", scid),
		}
	}

	pol := policies[direction]
	if pol == nil {
		return &InvariantViolation{
			Reason: fmt.Sprintf("GET_UPDATE requested for %v with no prior "+
				"policy on direction %d", scid, direction),
		}
	}

	if pol.LocalDisabled == pol.Disabled() {
		return nil
	}
	return d.RegenerateChannelUpdate(scid, direction, pol.LocalDisabled)
}

// SetLocalChannelDisabled flips the engine-owned local_disabled bit on one
// of our half-channels and regenerates its channel_update to match,
// spec.md §4.E's "local channel-update policy".
func (d *Daemon) SetLocalChannelDisabled(scid graph.ShortChanID, direction uint8, disabled bool) error {
	if err := d.cfg.Graph.SetLocalDisabled(scid, direction, disabled); err != nil {
		return err
	}
	return d.RegenerateChannelUpdate(scid, direction, disabled)
}

// OnFundingOutpointSpent removes a channel whose funding output has been
// spent on-chain, spec.md §4.E.
func (d *Daemon) OnFundingOutpointSpent(scid graph.ShortChanID) error {
	return d.cfg.Graph.RemoveEdge(scid)
}

// OnLocalChannelClose disables a local half-channel ahead of its removal,
// spec.md §4.E "local channel close".
func (d *Daemon) OnLocalChannelClose(scid graph.ShortChanID, direction uint8) error {
	return d.SetLocalChannelDisabled(scid, direction, true)
}

// runKeepAliveSweep is invoked every PruneTimeout()/4 (spec.md §6) to
// re-advertise local channels nearing their prune horizon and to prune and
// compact the graph.
func (d *Daemon) runKeepAliveSweep() {
	now := uint32(d.cfg.Clock.Now().Unix())
	staleBefore := now - uint32(d.cfg.UpdateChannelInterval.Seconds())
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

		pol := pair[direction]
		if pol == nil || pol.LastUpdate >= staleBefore {
			return nil
		}

		if err := d.RegenerateChannelUpdate(e.ChannelID, direction, pol.LocalDisabled); err != nil {
			log.Errorf("unable to refresh keep-alive update for %v: %v",
				e.ChannelID, err)
		}
		return nil
	})

	horizon := now - uint32(d.cfg.PruneTimeout().Seconds())
	pruned, err := d.cfg.Graph.PruneChannelsOlderThan(horizon)
	if err != nil {
		log.Errorf("unable to prune channel graph: %v", err)
	} else if len(pruned) > 0 {
		log.Infof("pruned %d channels older than the keep-alive horizon", len(pruned))
	}

	if err := d.cfg.Graph.CompactBroadcastLog(); err != nil {
		log.Errorf("unable to compact broadcast log: %v", err)
	}
}
