package graph

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/lightning-gossipd/gossipd/lnwire"
)

// AppendBroadcast records msg in the append-only broadcast log and returns
// the index assigned to it. Every accepted channel_announcement,
// channel_update, and node_announcement is appended exactly once, in
// acceptance order (spec.md §3 "gossip log").
func (g *ChannelGraph) AppendBroadcast(timestamp uint32, msgType lnwire.MessageType, payload []byte) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry := &BroadcastEntry{
		Timestamp: timestamp,
		Type:      msgType,
		Payload:   payload,
	}

	idx, err := g.store.appendBroadcast(entry)
	if err != nil {
		return 0, err
	}
	g.broadcastLog = append(g.broadcastLog, entry)

	return idx, nil
}

// BroadcastTip returns the index of the most recently appended entry, or 0
// if the log is empty. A fresh peer's cursor starts here, so it is handed
// only entries accepted after it connected.
func (g *ChannelGraph) BroadcastTip() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.broadcastLog) == 0 {
		return 0
	}
	return g.broadcastLog[len(g.broadcastLog)-1].Index
}

// NextBroadcast returns the first log entry after cursor whose timestamp
// falls in [tsMin, tsMax], along with that entry's index, so the caller can
// advance its cursor. ok is false if no such entry exists yet (the caller
// is caught up). This is a pull, not a push: the pacer in the gossip engine
// calls this once per wake rather than being handed entries as they land
// (spec.md §4.C).
func (g *ChannelGraph) NextBroadcast(cursor uint64, tsMin, tsMax uint32) (entry *BroadcastEntry, newCursor uint64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, e := range g.broadcastLog {
		if e.Index <= cursor {
			continue
		}
		if e.Timestamp < tsMin || e.Timestamp > tsMax {
			// Outside the peer's requested window: skip it but still
			// advance past it, since it will never become in-window
			// later (the window only bounds timestamps already fixed
			// at acceptance time).
			cursor = e.Index
			continue
		}
		return e, e.Index, true
	}
	return nil, cursor, false
}

// CompactBroadcastLog rewrites the broadcast log keeping only the latest
// channel_update per (scid, direction) and the latest node_announcement per
// node, dropping superseded entries. It is invoked from the keep-alive
// sweep tick (gossipd's local-channel policy, spec.md §4.E), not from any
// per-message path, matching the original gossipd.c's periodic store
// compaction (SPEC_FULL.md §7.4) that the distilled spec.md left out of
// scope for persistence format but not for ambient upkeep. Retained entries
// keep their original indices and peer cursors are left as they are; a peer
// mid-drain goes on to the retained entries past its cursor and never sees
// the dropped ones.
func (g *ChannelGraph) CompactBroadcastLog() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	latest := make(map[compactKey]*BroadcastEntry)
	var order []compactKey

	for _, e := range g.broadcastLog {
		k, supersedable := compactionKey(e)
		if !supersedable {
			// Channel announcements (and anything we fail to decode)
			// are never superseded; keep every one under its own
			// unique key.
			k = compactKey{msgType: e.Type, id: fmt.Sprintf("idx-%d", e.Index)}
		}
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = e
	}

	compacted := make([]*BroadcastEntry, 0, len(order))
	for _, k := range order {
		compacted = append(compacted, latest[k])
	}

	// Keeping latest[k] instead of the first occurrence can leave entries
	// out of index order (a superseded update's slot now holds a later
	// entry); re-sort so NextBroadcast's cursor comparison still walks the
	// log in strict broadcast-log order (spec.md §5).
	sort.Slice(compacted, func(i, j int) bool {
		return compacted[i].Index < compacted[j].Index
	})

	if err := g.store.rewriteBroadcastLog(compacted); err != nil {
		return err
	}
	g.broadcastLog = compacted

	return nil
}

type compactKey struct {
	msgType lnwire.MessageType
	id      string
}

// compactionKey decodes e enough to identify what it supersedes: a
// channel_update is keyed by (scid, direction), a node_announcement by node
// id. ok is false for message types that are never superseded (channel
// announcements) or that fail to decode, in which case the caller must
// treat the entry as unique.
func compactionKey(e *BroadcastEntry) (compactKey, bool) {
	switch e.Type {
	case lnwire.MsgChannelUpdate:
		upd := &lnwire.ChannelUpdate{}
		if err := upd.Decode(bytes.NewReader(e.Payload), storeProtocolVersion); err != nil {
			return compactKey{}, false
		}
		return compactKey{
			msgType: e.Type,
			id: fmt.Sprintf("%d-%d", upd.ShortChannelID.ToUint64(),
				upd.Direction()),
		}, true

	case lnwire.MsgNodeAnnouncement:
		ann := &lnwire.NodeAnnouncement{}
		if err := ann.Decode(bytes.NewReader(e.Payload), storeProtocolVersion); err != nil {
			return compactKey{}, false
		}
		return compactKey{
			msgType: e.Type,
			id:      string(ann.NodeID.SerializeCompressed()),
		}, true

	default:
		return compactKey{}, false
	}
}
