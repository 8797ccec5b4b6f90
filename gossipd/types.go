package gossipd

import (
	"math"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// emptyWindow is the sentinel gossip window meaning "nothing": ts_min >
// ts_max so no broadcast log entry can ever fall inside it (spec.md §3, §8).
var emptyWindow = GossipWindow{TSMin: math.MaxUint32, TSMax: 0}

// fullWindow covers every possible timestamp, used for legacy peers without
// the gossip_queries feature (spec.md §4.B).
var fullWindow = GossipWindow{TSMin: 0, TSMax: math.MaxUint32}

// GossipWindow is a peer's [ts_min, ts_max] timestamp filter over broadcast
// log entries (spec.md §3).
type GossipWindow struct {
	TSMin uint32
	TSMax uint32
}

// Empty reports whether the window is the "nothing" sentinel.
func (w GossipWindow) Empty() bool {
	return w.TSMin > w.TSMax
}

// Contains reports whether ts falls inside the window.
func (w GossipWindow) Contains(ts uint32) bool {
	return ts >= w.TSMin && ts <= w.TSMax
}

// newFilterWindow builds the window set by an inbound gossip_timestamp_filter,
// saturating ts_max at 2^32-1 rather than overflowing (spec.md §4.B, §8).
func newFilterWindow(first, rng uint32) GossipWindow {
	end := uint64(first) + uint64(rng)
	if end > math.MaxUint32 {
		end = math.MaxUint32
	}
	return GossipWindow{TSMin: first, TSMax: uint32(end)}
}

// scidQueryState tracks an in-flight inbound query_short_channel_ids reply
// (spec.md §3, §4.D): the requested SCIDs, an emit cursor over them, the
// accumulated (and eventually sorted+deduplicated) endpoint node ids, and a
// second emit cursor over those.
type scidQueryState struct {
	scids []lnwire.ShortChannelID
	i     int

	nodeIDs []graph.NodeID
	sorted  bool
	j       int
}

// done reports whether both emit cursors have been exhausted.
func (s *scidQueryState) done() bool {
	return s.i >= len(s.scids) && s.sorted && s.j >= len(s.nodeIDs)
}

// channelRangeQuery tracks an in-flight outbound query_channel_range,
// driven by a control request (spec.md §3, §4.D "Outbound range query").
type channelRangeQuery struct {
	first   uint32
	num     uint32
	covered []bool // per-block coverage bitmap, len == num
	scids   []lnwire.ShortChannelID
}

// allCovered reports whether every block in [first, first+num) has been
// covered by some reply_channel_range.
func (q *channelRangeQuery) allCovered() bool {
	for _, c := range q.covered {
		if !c {
			return false
		}
	}
	return true
}
