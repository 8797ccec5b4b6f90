package signer

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestLocalSignerSignVerifyRoundTrip(t *testing.T) {
	s, err := GenerateLocalSigner()
	require.NoError(t, err)

	digest := chainhash.DoubleHashB([]byte("a node announcement body"))

	sig, err := s.SignNodeAnnouncement(digest)
	require.NoError(t, err)
	require.True(t, sig.Verify(digest, s.PubKey()))

	sig2, err := s.SignChannelUpdate(digest)
	require.NoError(t, err)
	require.True(t, sig2.Verify(digest, s.PubKey()))
}

func TestLocalSignerRejectsWrongSizedDigest(t *testing.T) {
	s, err := GenerateLocalSigner()
	require.NoError(t, err)

	_, err = s.SignNodeAnnouncement([]byte("too short"))
	require.Error(t, err)
}

func TestLocalSignerSignatureFailsUnderWrongKey(t *testing.T) {
	s, err := GenerateLocalSigner()
	require.NoError(t, err)
	other, err := GenerateLocalSigner()
	require.NoError(t, err)

	digest := chainhash.DoubleHashB([]byte("body"))
	sig, err := s.SignNodeAnnouncement(digest)
	require.NoError(t, err)

	require.False(t, sig.Verify(digest, other.PubKey()))
}
