package gossipd

import (
	"bytes"
	"fmt"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// addPendingAnnouncement parks msg awaiting funding-output confirmation. It
// reports false if an announcement for the same short channel id is already
// pending, spec.md §4.B's duplicate-announcement-is-ignored rule extended to
// the pending state.
func (d *Daemon) addPendingAnnouncement(msg *lnwire.ChannelAnnouncement) bool {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	if _, ok := d.pending[msg.ShortChannelID]; ok {
		return false
	}
	d.pending[msg.ShortChannelID] = msg
	return true
}

func (d *Daemon) takePendingAnnouncement(scid graph.ShortChanID) (*lnwire.ChannelAnnouncement, bool) {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	msg, ok := d.pending[scid]
	if ok {
		delete(d.pending, scid)
	}
	return msg, ok
}

// HandlePendingChannelAnnouncement completes the funding-output confirmation
// round trip for a channel_announcement parked by handleChannelAnnouncement,
// spec.md §4.B/§6's handle_pending_cannouncement(scid, satoshis, outscript).
// control calls this once it has resolved scid's funding transaction output
// against the chain. satoshis is the output's value and outScript is its
// scriptPubKey; if outScript doesn't match what the announcement's two
// bitcoin keys commit to, the announcement is rejected rather than
// committed. An scid with nothing pending (already resolved, or never
// requested) is a no-op, not an error: control may resolve outputs
// asynchronously and after the engine has otherwise moved on.
func (d *Daemon) HandlePendingChannelAnnouncement(scid graph.ShortChanID, satoshis int64, outScript []byte) error {
	msg, ok := d.takePendingAnnouncement(scid)
	if !ok {
		return nil
	}

	expected, err := graph.ExpectedFundingPkScript(msg.BitcoinKey1, msg.BitcoinKey2)
	if err != nil {
		return fmt.Errorf("unable to compute expected funding output for %v: %w", scid, err)
	}
	if !bytes.Equal(expected, outScript) {
		return fmt.Errorf("funding output for %v does not match the "+
			"bitcoin keys announced for it", scid)
	}

	if d.cfg.Graph.HasEdge(scid) {
		return nil
	}

	var buf bytes.Buffer
	if err := msg.Encode(&buf, wireProtocolVersion); err != nil {
		return fmt.Errorf("unable to serialize channel announcement: %w", err)
	}

	edge := &graph.ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   graph.NewNodeID(msg.NodeID1),
		NodeKey2Bytes:   graph.NewNodeID(msg.NodeID2),
		Capacity:        satoshis,
		Public:          true,
		RawAnnouncement: msg,
	}
	if err := d.cfg.Graph.AddEdge(edge); err != nil {
		return fmt.Errorf("unable to store channel %v: %w", scid, err)
	}

	ts := uint32(d.cfg.Clock.Now().Unix())
	if _, err := d.cfg.Graph.AppendBroadcast(ts, lnwire.MsgChannelAnnouncement, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to log channel announcement: %w", err)
	}

	d.wakeAllPeers()

	// spec.md §4.E: a freshly announced channel's funding-output
	// confirmation is one of the two triggers for an opportunistic
	// self-node-announcement regeneration.
	if err := d.RegenerateNodeAnnouncement(false); err != nil {
		log.Errorf("unable to regenerate node announcement after "+
			"confirming channel %v: %v", scid, err)
	}
	return nil
}
