package lnwire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func baseNodeAnnouncement(t *testing.T) *NodeAnnouncement {
	t.Helper()
	alias, err := NewAlias("alice")
	require.NoError(t, err)

	return &NodeAnnouncement{
		Features: NewRawFeatureVector(GossipQueriesOptional),
		Alias:    alias,
		RGBColor: RGB{Red: 1, Green: 2, Blue: 3},
		Addresses: []net.Addr{
			&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9735},
		},
	}
}

func TestSameContentIgnoresTimestampAndSignature(t *testing.T) {
	a := baseNodeAnnouncement(t)
	b := baseNodeAnnouncement(t)
	b.Timestamp = a.Timestamp + 1000

	require.True(t, a.SameContent(b))
}

func TestSameContentDetectsAddressChange(t *testing.T) {
	a := baseNodeAnnouncement(t)
	b := baseNodeAnnouncement(t)
	b.Addresses = []net.Addr{&net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 9735}}

	require.False(t, a.SameContent(b))
}

func TestSameContentDetectsAliasChange(t *testing.T) {
	a := baseNodeAnnouncement(t)
	b := baseNodeAnnouncement(t)
	alias, err := NewAlias("mallory")
	require.NoError(t, err)
	b.Alias = alias

	require.False(t, a.SameContent(b))
}

func TestSameContentDetectsFeatureChange(t *testing.T) {
	a := baseNodeAnnouncement(t)
	b := baseNodeAnnouncement(t)
	b.Features = NewRawFeatureVector(GossipQueriesOptional, InitialRoutingSyncOptional)

	require.False(t, a.SameContent(b))
}
