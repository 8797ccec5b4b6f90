package graph

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

// chainGraph builds a 3-node chain src -> mid -> dst with one channel each
// way, both directions carrying a policy, and returns the node ids in chain
// order.
func chainGraph(t *testing.T) (g *ChannelGraph, src, mid, dst NodeID) {
	t.Helper()

	g = openTestGraph(t)

	srcKey, midKey, dstKey := mustGenKey(t), mustGenKey(t), mustGenKey(t)
	src, mid, dst = NewNodeID(srcKey.PubKey()), NewNodeID(midKey.PubKey()), NewNodeID(dstKey.PubKey())

	addChannel := func(aKey, bKey *btcec.PrivateKey, aID, bID NodeID, scid lnwire.ShortChannelID) {
		ann := signedChannelAnnouncement(t, aKey, bKey, scid)
		require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
			ChannelID:       scid,
			NodeKey1Bytes:   aID,
			NodeKey2Bytes:   bID,
			RawAnnouncement: ann,
		}))

		upd0 := signedChannelUpdate(t, aKey, scid, 10, 0)
		require.NoError(t, g.UpdatePolicy(&ChannelEdgePolicy{
			ChannelID: scid, LastUpdate: 10, Flags: 0,
			FeeBaseMsat: 1000, FeeProportionalMillionths: 1,
			TimeLockDelta: 40, RawUpdate: upd0,
		}))

		upd1 := signedChannelUpdate(t, bKey, scid, 10, 1)
		require.NoError(t, g.UpdatePolicy(&ChannelEdgePolicy{
			ChannelID: scid, LastUpdate: 10, Flags: 1,
			FeeBaseMsat: 1000, FeeProportionalMillionths: 1,
			TimeLockDelta: 40, RawUpdate: upd1,
		}))
	}

	addChannel(srcKey, midKey, src, mid, lnwire.NewShortChanIDFromInt(1<<40))
	addChannel(midKey, dstKey, mid, dst, lnwire.NewShortChanIDFromInt(2<<40))

	return g, src, mid, dst
}

func TestGetRouteFindsTwoHopPath(t *testing.T) {
	g, src, _, dst := chainGraph(t)

	hops, err := g.GetRoute(src, dst, 1000000, 0, 40, 0, 0)
	require.NoError(t, err)
	require.Len(t, hops, 2)
	require.Equal(t, dst, hops[1].NodeID)
}

func TestGetRouteRejectsSameSourceAndDestination(t *testing.T) {
	g := openTestGraph(t)
	key := mustGenKey(t)
	id := NewNodeID(key.PubKey())

	_, err := g.GetRoute(id, id, 1000, 0, 40, 0, 0)
	require.Error(t, err)
}

func TestGetRouteNoPathFound(t *testing.T) {
	g := openTestGraph(t)
	a, b := NewNodeID(mustGenKey(t).PubKey()), NewNodeID(mustGenKey(t).PubKey())

	_, err := g.GetRoute(a, b, 1000, 0, 40, 0, 0)
	require.Error(t, err)
}

func TestMarkChannelUnroutableExcludesFromRoute(t *testing.T) {
	g, src, _, dst := chainGraph(t)

	_, err := g.GetRoute(src, dst, 1000, 0, 40, 0, 0)
	require.NoError(t, err)

	g.MarkChannelUnroutable(lnwire.NewShortChanIDFromInt(1 << 40))

	_, err = g.GetRoute(src, dst, 1000, 0, 40, 0, 0)
	require.Error(t, err)
}

func TestPruneChannelsOlderThan(t *testing.T) {
	g := openTestGraph(t)

	n1, n2 := mustGenKey(t), mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(3 << 40)
	ann := signedChannelAnnouncement(t, n1, n2, scid)
	require.NoError(t, g.AddEdge(&ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   NewNodeID(n1.PubKey()),
		NodeKey2Bytes:   NewNodeID(n2.PubKey()),
		RawAnnouncement: ann,
	}))

	upd := signedChannelUpdate(t, n1, scid, 100, 0)
	require.NoError(t, g.UpdatePolicy(&ChannelEdgePolicy{
		ChannelID: scid, LastUpdate: 100, Flags: 0, RawUpdate: upd,
	}))

	pruned, err := g.PruneChannelsOlderThan(50)
	require.NoError(t, err)
	require.Empty(t, pruned)
	require.True(t, g.HasEdge(scid))

	pruned, err = g.PruneChannelsOlderThan(200)
	require.NoError(t, err)
	require.Equal(t, []ShortChanID{scid}, pruned)
	require.False(t, g.HasEdge(scid))
}
