package graph

import (
	"testing"

	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeCreatesMissingEndpointNodes(t *testing.T) {
	g := openTestGraph(t)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(10 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)

	id1 := NewNodeID(n1.PubKey())
	id2 := NewNodeID(n2.PubKey())

	require.False(t, g.HasEdge(scid))
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   id1,
		NodeKey2Bytes:   id2,
		Capacity:        100000,
		FundingOutPoint: "deadbeef:0",
		RawAnnouncement: ann,
	}))
	require.True(t, g.HasEdge(scid))

	_, ok := g.Node(id1)
	require.True(t, ok)
	_, ok = g.Node(id2)
	require.True(t, ok)

	edge, pair, ok := g.Edge(scid)
	require.True(t, ok)
	require.Equal(t, id1, edge.NodeKey1Bytes)
	require.Nil(t, pair[0])
	require.Nil(t, pair[1])
}

func TestAddNodeOverwritesExisting(t *testing.T) {
	g := openTestGraph(t)

	key := mustGenKey(t)
	id := NewNodeID(key.PubKey())

	require.NoError(t, g.AddNode(&LightningNode{PubKeyBytes: id}))
	n, ok := g.Node(id)
	require.True(t, ok)
	require.False(t, n.HaveNodeAnnouncement)

	ann := signedNodeAnnouncement(t, key, "shiny", 100)
	require.NoError(t, g.AddNode(&LightningNode{
		PubKeyBytes:          id,
		HaveNodeAnnouncement: true,
		LastUpdate:           100,
		Alias:                "shiny",
		RawAnnouncement:      ann,
	}))

	n, ok = g.Node(id)
	require.True(t, ok)
	require.True(t, n.HaveNodeAnnouncement)
	require.Equal(t, "shiny", n.Alias)
}

func TestUpdatePolicyRequiresKnownChannel(t *testing.T) {
	g := openTestGraph(t)

	key := mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(1 << 40)
	upd := signedChannelUpdate(t, key, scid, 10, 0)

	err := g.UpdatePolicy(&ChannelEdgePolicy{ChannelID: scid, RawUpdate: upd})
	require.Error(t, err)
}

func TestUpdatePolicyAndSetLocalDisabled(t *testing.T) {
	g := openTestGraph(t)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(5 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   NewNodeID(n1.PubKey()),
		NodeKey2Bytes:   NewNodeID(n2.PubKey()),
		RawAnnouncement: ann,
	}))

	upd := signedChannelUpdate(t, n1, scid, 10, 0)
	require.NoError(t, g.UpdatePolicy(&ChannelEdgePolicy{
		ChannelID:  scid,
		LastUpdate: 10,
		Flags:      0,
		RawUpdate:  upd,
	}))

	_, pair, ok := g.Edge(scid)
	require.True(t, ok)
	require.NotNil(t, pair[0])
	require.False(t, pair[0].LocalDisabled)

	require.NoError(t, g.SetLocalDisabled(scid, 0, true))
	_, pair, ok = g.Edge(scid)
	require.True(t, ok)
	require.True(t, pair[0].LocalDisabled)

	err := g.SetLocalDisabled(scid, 1, true)
	require.Error(t, err)
}

func TestRemoveEdge(t *testing.T) {
	g := openTestGraph(t)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(7 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   NewNodeID(n1.PubKey()),
		NodeKey2Bytes:   NewNodeID(n2.PubKey()),
		RawAnnouncement: ann,
	}))
	require.True(t, g.HasEdge(scid))

	require.NoError(t, g.RemoveEdge(scid))
	require.False(t, g.HasEdge(scid))

	_, _, ok := g.Edge(scid)
	require.False(t, ok)
}

func TestForEachChannelAndNode(t *testing.T) {
	g := openTestGraph(t)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(8 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   NewNodeID(n1.PubKey()),
		NodeKey2Bytes:   NewNodeID(n2.PubKey()),
		RawAnnouncement: ann,
	}))

	var channelCount, nodeCount int
	require.NoError(t, g.ForEachChannel(func(*ChannelEdgeInfo, [2]*ChannelEdgePolicy) error {
		channelCount++
		return nil
	}))
	require.NoError(t, g.ForEachNode(func(*LightningNode) error {
		nodeCount++
		return nil
	}))

	require.Equal(t, 1, channelCount)
	require.Equal(t, 2, nodeCount)
}

func TestGraphSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/graph.db"

	g, err := NewChannelGraph(path)
	require.NoError(t, err)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(9 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   NewNodeID(n1.PubKey()),
		NodeKey2Bytes:   NewNodeID(n2.PubKey()),
		Capacity:        50000,
		RawAnnouncement: ann,
	}))
	require.NoError(t, g.Close())

	reopened, err := NewChannelGraph(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, reopened.HasEdge(scid))
	edge, _, ok := reopened.Edge(scid)
	require.True(t, ok)
	require.Equal(t, int64(50000), edge.Capacity)
}
