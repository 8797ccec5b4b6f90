package gossipd

import (
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

// memStream is an in-memory Stream double: outbound messages land on out,
// inbound messages are fed from in. Recv returns errStreamClosed once the test (or
// Close) closes the stream, simulating a dropped connection.
type memStream struct {
	out chan lnwire.Message
	in  chan lnwire.Message

	closed chan struct{}
}

func newMemStream() *memStream {
	return &memStream{
		out:    make(chan lnwire.Message, 10),
		in:     make(chan lnwire.Message, 10),
		closed: make(chan struct{}),
	}
}

var errStreamClosed = errors.New("stream closed")

func (s *memStream) Send(msg lnwire.Message) error {
	select {
	case s.out <- msg:
		return nil
	case <-s.closed:
		return errStreamClosed
	}
}

func (s *memStream) Recv() (lnwire.Message, error) {
	select {
	case msg := <-s.in:
		return msg, nil
	case <-s.closed:
		return nil, errStreamClosed
	}
}

func (s *memStream) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func newConnectedTestPeer(t *testing.T) (*Daemon, *Peer, *memStream) {
	t.Helper()

	d, _ := newTestDaemon(t)

	peerKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	stream := newMemStream()
	p := d.NewPeerStream(peerKey.PubKey(), false, false, stream)
	t.Cleanup(func() { d.Stop() })

	return d, p, stream
}

func recvWithTimeout(t *testing.T, ch <-chan lnwire.Message) lnwire.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound message")
		return nil
	}
}

func TestPeerRespondsToPing(t *testing.T) {
	_, _, stream := newConnectedTestPeer(t)

	stream.in <- &lnwire.Ping{NumPongBytes: 4}

	msg := recvWithTimeout(t, stream.out)
	pong, ok := msg.(*lnwire.Pong)
	require.True(t, ok)
	require.Len(t, pong.PongBytes, 4)
}

func TestPeerIgnoresPingAboveNoReplyThreshold(t *testing.T) {
	_, _, stream := newConnectedTestPeer(t)

	stream.in <- &lnwire.Ping{NumPongBytes: lnwire.NoReplyThreshold}

	// Follow up with an ordinary ping; if the first one had wrongly
	// produced a reply it would arrive first and fail the assertion
	// below.
	stream.in <- &lnwire.Ping{NumPongBytes: 1}

	msg := recvWithTimeout(t, stream.out)
	pong, ok := msg.(*lnwire.Pong)
	require.True(t, ok)
	require.Len(t, pong.PongBytes, 1)
}

func TestPeerDisconnectOnReadErrorDoesNotDeadlock(t *testing.T) {
	d, p, stream := newConnectedTestPeer(t)
	require.Equal(t, 1, d.PeerCount())

	// Closing the stream makes Recv fail inside readLoop, which calls
	// d.removePeer(p) from the peer's own goroutine. Before the
	// signalQuit/stop split this deadlocked forever on p.wg.Wait().
	stream.Close()

	require.Eventually(t, func() bool {
		return d.PeerCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := d.Peer(p.id)
	require.False(t, ok)
}

func TestAddPeerEvictsExistingSessionForSameID(t *testing.T) {
	d, _ := newTestDaemon(t)
	t.Cleanup(func() { d.Stop() })

	peerKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	firstStream := newMemStream()
	first := d.NewPeerStream(peerKey.PubKey(), false, false, firstStream)
	require.Equal(t, 1, d.PeerCount())

	secondStream := newMemStream()
	second := d.NewPeerStream(peerKey.PubKey(), false, false, secondStream)

	require.Equal(t, 1, d.PeerCount())
	cur, ok := d.Peer(first.id)
	require.True(t, ok)
	require.Same(t, second, cur)

	// The evicted session's transport must be torn down.
	select {
	case <-firstStream.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("evicted peer's stream was never closed")
	}
}

func TestDisconnectPeerDisablesLocalChannels(t *testing.T) {
	d, p, _ := newConnectedTestPeer(t)

	scid := lnwire.NewShortChanIDFromInt(77 << 40)
	selfID := graph.NewNodeID(d.cfg.NodeID)

	require.NoError(t, d.cfg.Graph.AddEdge(&graph.ChannelEdgeInfo{
		ChannelID:     scid,
		NodeKey1Bytes: selfID,
		NodeKey2Bytes: p.id,
		RawAnnouncement: &lnwire.ChannelAnnouncement{
			Features:       lnwire.NewRawFeatureVector(),
			ShortChannelID: scid,
			NodeID1:        d.cfg.NodeID,
			NodeID2:        p.pubKey,
		},
	}))
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: scid, LastUpdate: 10, Flags: 0,
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: scid, Timestamp: 10},
	}))

	d.DisconnectPeer(p.id)

	require.Eventually(t, func() bool {
		_, pair, ok := d.cfg.Graph.Edge(scid)
		return ok && pair[0] != nil && pair[0].LocalDisabled
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemovePeerDisablesLocalChannelsOnStreamDeath(t *testing.T) {
	d, p, stream := newConnectedTestPeer(t)

	scid := lnwire.NewShortChanIDFromInt(78 << 40)
	selfID := graph.NewNodeID(d.cfg.NodeID)

	require.NoError(t, d.cfg.Graph.AddEdge(&graph.ChannelEdgeInfo{
		ChannelID:     scid,
		NodeKey1Bytes: selfID,
		NodeKey2Bytes: p.id,
		RawAnnouncement: &lnwire.ChannelAnnouncement{
			Features:       lnwire.NewRawFeatureVector(),
			ShortChannelID: scid,
			NodeID1:        d.cfg.NodeID,
			NodeID2:        p.pubKey,
		},
	}))
	require.NoError(t, d.cfg.Graph.UpdatePolicy(&graph.ChannelEdgePolicy{
		ChannelID: scid, LastUpdate: 10, Flags: 0,
		RawUpdate: &lnwire.ChannelUpdate{ShortChannelID: scid, Timestamp: 10},
	}))

	// Unlike TestDisconnectPeerDisablesLocalChannels, this goes through no
	// explicit disconnect call at all: closing the stream makes readLoop
	// observe a dead connection and call d.removePeer(p) itself, the path
	// every ordinary disconnect actually takes.
	stream.Close()

	require.Eventually(t, func() bool {
		_, pair, ok := d.cfg.Graph.Edge(scid)
		return ok && pair[0] != nil && pair[0].LocalDisabled
	}, 2*time.Second, 10*time.Millisecond)
}
