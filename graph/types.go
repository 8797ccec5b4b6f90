// Package graph implements the channel-graph storage and validation library
// that spec.md §1 names as an external collaborator ("routing_state,
// handle_channel_announcement, handle_channel_update,
// handle_node_announcement, get_route, pruning"). It is grounded on
// _examples/backend-engineer1-land/channeldb/graph.go's bucket layout,
// adapted from boltdb to bbolt (the maintained fork lnd's own kvdb module
// now depends on) and simplified to the fields the gossip engine actually
// needs.
package graph

import (
	"net"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// NodeID is the compressed-serialized public key identifying a node, used
// as a map key and for the node's total order (spec.md §3: "equality by
// byte comparison").
type NodeID [33]byte

// NewNodeID extracts the NodeID from a public key.
func NewNodeID(pub *btcec.PublicKey) NodeID {
	var id NodeID
	copy(id[:], pub.SerializeCompressed())
	return id
}

// LightningNode is a vertex in the channel graph: everything learned about a
// node from its most recent node_announcement, if any has been seen.
type LightningNode struct {
	PubKeyBytes NodeID

	// HaveNodeAnnouncement is false until a valid node_announcement has
	// been accepted for this node; a node can exist in the graph purely
	// as a channel endpoint before that happens.
	HaveNodeAnnouncement bool

	LastUpdate uint32
	Addresses  []net.Addr
	Alias      string
	Color      lnwire.RGB
	Features   *lnwire.RawFeatureVector

	// AuthSig is the signature from the node's most recently accepted
	// node_announcement, kept so it can be replayed verbatim to peers
	// asking for it via query_short_channel_ids.
	AuthSig lnwire.Sig

	// RawAnnouncement is the exact node_announcement last accepted for
	// this node, preserved so it can be relayed byte-for-byte.
	RawAnnouncement *lnwire.NodeAnnouncement
}

// PubKey parses and returns the node's public key.
func (n *LightningNode) PubKey() (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(n.PubKeyBytes[:])
}

// ChannelEdgeInfo is the half of a channel's data that doesn't change with
// routing policy updates: the endpoints and the on-chain proof of
// existence.
type ChannelEdgeInfo struct {
	ChannelID ShortChanID

	NodeKey1Bytes NodeID
	NodeKey2Bytes NodeID

	Capacity int64

	// FundingOutPoint identifies the on-chain output whose spend deletes
	// this channel from the graph (spec.md §4.E "funding outpoint spent").
	FundingOutPoint string

	// Public is true once a validated channel_announcement has been
	// committed for this channel, i.e. it passed the funding-output
	// confirmation round-trip of spec.md §4.B/§6 and was broadcast to
	// the network. A channel registered only via LOCAL_ADD_CHANNEL
	// (spec.md §4.E) and never announced stays false; getchannels
	// (spec.md §4.F) and get_incoming_channels report this bit
	// verbatim.
	Public bool

	// RawAnnouncement is the exact channel_announcement last accepted,
	// preserved for relay. Nil for a private, LOCAL_ADD_CHANNEL-only
	// channel that has no announcement at all.
	RawAnnouncement *lnwire.ChannelAnnouncement
}

// ShortChanID is the graph's internal alias for lnwire.ShortChannelID, kept
// distinct so graph.go doesn't need to import lnwire for every signature.
type ShortChanID = lnwire.ShortChannelID

// ChannelEdgePolicy is one direction's routing policy for a channel: the
// data carried by a channel_update.
type ChannelEdgePolicy struct {
	ChannelID ShortChanID

	LastUpdate uint32

	// Flags packs the direction bit (bit 0) and the disable bit (bit 1),
	// exactly as lnwire.ChannelUpdate.ChannelFlags.
	Flags uint8

	TimeLockDelta             uint16
	MinHTLC                   uint64
	MaxHTLC                   uint64
	FeeBaseMsat               uint32
	FeeProportionalMillionths uint32

	// LocalDisabled is set only for half-channels where we are an
	// endpoint; it is the engine's own view (spec.md §4.E) and is
	// distinct from the graph-level Disabled flag carried in the last
	// accepted channel_update.
	LocalDisabled bool

	// RawUpdate is the exact channel_update last accepted for this
	// direction, preserved for relay.
	RawUpdate *lnwire.ChannelUpdate
}

// Disabled reports the graph-level (not local) disabled bit.
func (p *ChannelEdgePolicy) Disabled() bool {
	return p.Flags&uint8(lnwire.ChanUpdateDisabled) != 0
}

// Direction returns which endpoint (0 or 1) this policy describes.
func (p *ChannelEdgePolicy) Direction() uint8 {
	return p.Flags & uint8(lnwire.ChanUpdateDirection)
}

// BroadcastEntry is one record of the append-only, monotonically indexed
// broadcast log that peers' cursors walk (spec.md §3).
type BroadcastEntry struct {
	Index     uint64
	Timestamp uint32
	Type      lnwire.MessageType
	Payload   []byte
}

// now is overridable in tests; production code always goes through the
// injected clock.Clock in the gossipd package instead. Nothing in the graph
// package currently reads it: pruning takes its horizon as an argument.
var now = time.Now
