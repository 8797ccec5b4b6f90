package gossipd

import (
	"math"
	"testing"

	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

func TestGossipWindowEmpty(t *testing.T) {
	require.True(t, emptyWindow.Empty())
	require.False(t, fullWindow.Empty())
	require.False(t, GossipWindow{TSMin: 10, TSMax: 10}.Empty())
}

func TestGossipWindowContains(t *testing.T) {
	w := GossipWindow{TSMin: 100, TSMax: 200}
	require.True(t, w.Contains(100))
	require.True(t, w.Contains(200))
	require.True(t, w.Contains(150))
	require.False(t, w.Contains(99))
	require.False(t, w.Contains(201))
}

func TestNewFilterWindowSaturatesAtMaxUint32(t *testing.T) {
	w := newFilterWindow(math.MaxUint32-10, 1000)
	require.Equal(t, uint32(math.MaxUint32-10), w.TSMin)
	require.Equal(t, uint32(math.MaxUint32), w.TSMax)
}

func TestNewFilterWindowNoOverflow(t *testing.T) {
	w := newFilterWindow(100, 50)
	require.Equal(t, uint32(100), w.TSMin)
	require.Equal(t, uint32(150), w.TSMax)
}

func TestSCIDQueryStateDone(t *testing.T) {
	s := &scidQueryState{
		scids:   []lnwire.ShortChannelID{lnwire.NewShortChanIDFromInt(1)},
		nodeIDs: nil,
	}
	require.False(t, s.done())

	s.i = 1
	// scids exhausted, but the node-id phase hasn't started sorting yet.
	require.False(t, s.done())

	s.sorted = true
	require.True(t, s.done())
}

func TestChannelRangeQueryAllCovered(t *testing.T) {
	q := &channelRangeQuery{first: 0, num: 3, covered: make([]bool, 3)}
	require.False(t, q.allCovered())

	q.covered[0] = true
	q.covered[1] = true
	require.False(t, q.allCovered())

	q.covered[2] = true
	require.True(t, q.allCovered())
}
