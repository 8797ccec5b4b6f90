package gossipd

import (
	"testing"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/lightning-gossipd/gossipd/signer"
	"github.com/stretchr/testify/require"
)

// newIncomingTestEdge wires up a channel between our own node and a freshly
// generated peer, direction 0 is us -> peer and direction 1 is peer -> us.
func newIncomingTestEdge(t *testing.T, d *Daemon, scid lnwire.ShortChannelID,
	public bool) (peerID graph.NodeID) {

	t.Helper()

	peerSigner, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	peerID = graph.NewNodeID(peerSigner.PubKey())

	edge := &graph.ChannelEdgeInfo{
		ChannelID:     scid,
		NodeKey1Bytes: graph.NewNodeID(d.cfg.NodeID),
		NodeKey2Bytes: peerID,
		Public:        public,
	}
	if public {
		edge.RawAnnouncement = &lnwire.ChannelAnnouncement{
			Features:       lnwire.NewRawFeatureVector(),
			ShortChannelID: scid,
			NodeID1:        d.cfg.NodeID,
			NodeID2:        peerSigner.PubKey(),
		}
	}
	require.NoError(t, d.cfg.Graph.AddEdge(edge))

	return peerID
}

func TestGetIncomingChannelsFiltersToPublicEnabled(t *testing.T) {
	d, _ := newTestDaemon(t)

	// Public, inbound direction (peer -> us, direction 1) enabled: should
	// be included.
	includedSCID := lnwire.NewShortChanIDFromInt(10 << 40)
	newIncomingTestEdge(t, d, includedSCID, true)
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: includedSCID, LastUpdate: 1, Flags: 1,
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: includedSCID, Timestamp: 1, ChannelFlags: 1},
	}))

	// Private channel: must be excluded even with an enabled inbound
	// policy.
	privateSCID := lnwire.NewShortChanIDFromInt(11 << 40)
	newIncomingTestEdge(t, d, privateSCID, false)
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: privateSCID, LastUpdate: 1, Flags: 1,
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: privateSCID, Timestamp: 1, ChannelFlags: 1},
	}))

	// Public but graph-disabled inbound policy: excluded.
	disabledSCID := lnwire.NewShortChanIDFromInt(12 << 40)
	newIncomingTestEdge(t, d, disabledSCID, true)
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: disabledSCID, LastUpdate: 1,
		Flags:     1 | uint8(lnwire.ChanUpdateDisabled),
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: disabledSCID, Timestamp: 1, ChannelFlags: 1 | uint8(lnwire.ChanUpdateDisabled)},
	}))

	// Public, inbound policy present but local_disabled: excluded.
	localDisabledSCID := lnwire.NewShortChanIDFromInt(13 << 40)
	newIncomingTestEdge(t, d, localDisabledSCID, true)
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: localDisabledSCID, LastUpdate: 1, Flags: 1,
		RawUpdate:     &lnwire.ChannelUpdate{ShortChannelID: localDisabledSCID, Timestamp: 1, ChannelFlags: 1},
		LocalDisabled: true,
	}))

	got := d.GetIncomingChannels()
	require.Len(t, got, 1)
	require.Equal(t, includedSCID, got[0].ChannelID)
}
