package graph

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

func mustGenKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func mustEncode(t *testing.T, msg lnwire.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, msg.Encode(&buf, 0))
	return buf.Bytes()
}

// signedChannelAnnouncement builds a fully signed channel_announcement
// between node1 and node2's keys, using each node's own key as a stand-in
// bitcoin key too (the distinction doesn't matter for anything these tests
// exercise).
func signedChannelAnnouncement(t *testing.T, node1, node2 *btcec.PrivateKey,
	scid lnwire.ShortChannelID) *lnwire.ChannelAnnouncement {

	t.Helper()

	ann := &lnwire.ChannelAnnouncement{
		Features:       lnwire.NewRawFeatureVector(),
		ShortChannelID: scid,
		NodeID1:        node1.PubKey(),
		NodeID2:        node2.PubKey(),
		BitcoinKey1:    node1.PubKey(),
		BitcoinKey2:    node2.PubKey(),
	}

	data, err := ann.DataToSign()
	require.NoError(t, err)
	digest := chainhash.DoubleHashB(data)

	ann.NodeSig1 = mustSig(t, node1, digest)
	ann.NodeSig2 = mustSig(t, node2, digest)
	ann.BitcoinSig1 = mustSig(t, node1, digest)
	ann.BitcoinSig2 = mustSig(t, node2, digest)

	return ann
}

// signedChannelUpdate builds a channel_update signed by issuer for the given
// direction.
func signedChannelUpdate(t *testing.T, issuer *btcec.PrivateKey,
	scid lnwire.ShortChannelID, timestamp uint32, direction uint8) *lnwire.ChannelUpdate {

	t.Helper()

	upd := &lnwire.ChannelUpdate{
		ShortChannelID: scid,
		Timestamp:      timestamp,
		ChannelFlags:   direction,
		TimeLockDelta:  40,
		BaseFee:        1000,
		FeeRate:        1,
	}

	data, err := upd.DataToSign()
	require.NoError(t, err)
	digest := chainhash.DoubleHashB(data)
	upd.Signature = mustSig(t, issuer, digest)

	return upd
}

// signedNodeAnnouncement builds a node_announcement signed by key.
func signedNodeAnnouncement(t *testing.T, key *btcec.PrivateKey, alias string,
	timestamp uint32) *lnwire.NodeAnnouncement {

	t.Helper()

	a, err := lnwire.NewAlias(alias)
	require.NoError(t, err)

	ann := &lnwire.NodeAnnouncement{
		Features:  lnwire.NewRawFeatureVector(),
		Timestamp: timestamp,
		NodeID:    key.PubKey(),
		Alias:     a,
	}

	data, err := ann.DataToSign()
	require.NoError(t, err)
	digest := chainhash.DoubleHashB(data)
	ann.Signature = mustSig(t, key, digest)

	return ann
}

func mustSig(t *testing.T, key *btcec.PrivateKey, digest []byte) lnwire.Sig {
	t.Helper()
	sig, err := lnwire.NewSigFromSignature(ecdsa.Sign(key, digest))
	require.NoError(t, err)
	return sig
}
