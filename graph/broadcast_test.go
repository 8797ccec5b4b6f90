package graph

import (
	"path/filepath"
	"testing"

	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

func openTestGraph(t *testing.T) *ChannelGraph {
	t.Helper()

	dir := t.TempDir()
	g, err := NewChannelGraph(filepath.Join(dir, "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestAppendAndNextBroadcast(t *testing.T) {
	g := openTestGraph(t)

	idx1, err := g.AppendBroadcast(100, lnwire.MsgChannelAnnouncement, []byte("one"))
	require.NoError(t, err)
	idx2, err := g.AppendBroadcast(200, lnwire.MsgChannelUpdate, []byte("two"))
	require.NoError(t, err)
	require.Greater(t, idx2, idx1)

	entry, cursor, ok := g.NextBroadcast(0, 0, 1000)
	require.True(t, ok)
	require.Equal(t, idx1, cursor)
	require.Equal(t, []byte("one"), entry.Payload)

	entry, cursor, ok = g.NextBroadcast(cursor, 0, 1000)
	require.True(t, ok)
	require.Equal(t, idx2, cursor)
	require.Equal(t, []byte("two"), entry.Payload)

	_, _, ok = g.NextBroadcast(cursor, 0, 1000)
	require.False(t, ok)
}

func TestNextBroadcastSkipsOutOfWindowEntries(t *testing.T) {
	g := openTestGraph(t)

	_, err := g.AppendBroadcast(50, lnwire.MsgChannelAnnouncement, []byte("early"))
	require.NoError(t, err)
	idxLate, err := g.AppendBroadcast(500, lnwire.MsgChannelAnnouncement, []byte("late"))
	require.NoError(t, err)

	// A window that excludes the early entry should skip straight past it
	// to the late one, and still advance the cursor past the skipped
	// entry rather than returning it as "not ok".
	entry, cursor, ok := g.NextBroadcast(0, 400, 600)
	require.True(t, ok)
	require.Equal(t, idxLate, cursor)
	require.Equal(t, []byte("late"), entry.Payload)
}

func TestBroadcastTipEmpty(t *testing.T) {
	g := openTestGraph(t)
	require.Equal(t, uint64(0), g.BroadcastTip())

	idx, err := g.AppendBroadcast(1, lnwire.MsgChannelAnnouncement, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, idx, g.BroadcastTip())
}

func TestCompactBroadcastLogKeepsLatestPerKeyInIndexOrder(t *testing.T) {
	g := openTestGraph(t)

	n1 := mustGenKey(t)
	n2 := mustGenKey(t)

	oldUpd := signedChannelUpdate(t, n1, lnwire.NewShortChanIDFromInt(1<<40), 100, 0)
	_, err := g.AppendBroadcast(100, lnwire.MsgChannelUpdate, mustEncode(t, oldUpd))
	require.NoError(t, err)

	// An unrelated channel announcement is never superseded and must
	// survive compaction untouched.
	ann := signedChannelAnnouncement(t, n1, n2, lnwire.NewShortChanIDFromInt(2<<40))
	annIdx, err := g.AppendBroadcast(150, lnwire.MsgChannelAnnouncement, mustEncode(t, ann))
	require.NoError(t, err)

	newUpd := signedChannelUpdate(t, n1, lnwire.NewShortChanIDFromInt(1<<40), 200, 0)
	newIdx, err := g.AppendBroadcast(200, lnwire.MsgChannelUpdate, mustEncode(t, newUpd))
	require.NoError(t, err)

	require.NoError(t, g.CompactBroadcastLog())

	require.Len(t, g.broadcastLog, 2)
	require.Equal(t, annIdx, g.broadcastLog[0].Index)
	require.Equal(t, newIdx, g.broadcastLog[1].Index)

	// The log must remain in strictly ascending index order so cursor
	// comparisons in NextBroadcast stay correct post-compaction.
	for i := 1; i < len(g.broadcastLog); i++ {
		require.Less(t, g.broadcastLog[i-1].Index, g.broadcastLog[i].Index)
	}
}

func TestBroadcastLogSurvivesReopenWithIndicesIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.db")

	g, err := NewChannelGraph(path)
	require.NoError(t, err)

	idx1, err := g.AppendBroadcast(10, lnwire.MsgChannelAnnouncement, []byte("a"))
	require.NoError(t, err)
	idx2, err := g.AppendBroadcast(20, lnwire.MsgChannelUpdate, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, g.Close())

	reopened, err := NewChannelGraph(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Len(t, reopened.broadcastLog, 2)
	require.Equal(t, idx1, reopened.broadcastLog[0].Index)
	require.Equal(t, idx2, reopened.broadcastLog[1].Index)
	require.Equal(t, idx2, reopened.BroadcastTip())

	// A fresh reader starting at 0 must see both entries in order, with
	// their original indices as cursors: this is the invariant the
	// Index==0 deserialize bug broke.
	_, cursor, ok := reopened.NextBroadcast(0, 0, 1000)
	require.True(t, ok)
	require.Equal(t, idx1, cursor)

	entry, cursor, ok := reopened.NextBroadcast(cursor, 0, 1000)
	require.True(t, ok)
	require.Equal(t, idx2, cursor)
	require.Equal(t, []byte("b"), entry.Payload)
}
