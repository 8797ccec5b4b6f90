package gossipd

import (
	"testing"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/lightning-gossipd/gossipd/signer"
	"github.com/stretchr/testify/require"
)

func TestStartDisablesAllLocalChannelsOnInit(t *testing.T) {
	d, _ := newTestDaemon(t)

	peerSigner, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	scid := lnwire.NewShortChanIDFromInt(60 << 40)

	require.NoError(t, d.cfg.Graph.AddEdge(&graph.ChannelEdgeInfo{
		ChannelID:     scid,
		NodeKey1Bytes: graph.NewNodeID(d.cfg.NodeID),
		NodeKey2Bytes: graph.NewNodeID(peerSigner.PubKey()),
		RawAnnouncement: &lnwire.ChannelAnnouncement{
			Features:       lnwire.NewRawFeatureVector(),
			ShortChannelID: scid,
			NodeID1:        d.cfg.NodeID,
			NodeID2:        peerSigner.PubKey(),
		},
	}))
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: scid, LastUpdate: 10, Flags: 0,
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: scid, Timestamp: 10},
	}))

	_, pair, ok := d.cfg.Graph.Edge(scid)
	require.True(t, ok)
	require.False(t, pair[0].LocalDisabled)

	d.Start()
	t.Cleanup(d.Stop)

	_, pair, ok = d.cfg.Graph.Edge(scid)
	require.True(t, ok)
	require.True(t, pair[0].LocalDisabled)
	// Start must not have touched the graph-level advertised flag, only
	// the engine's own local view.
	require.False(t, pair[0].Disabled())
}
