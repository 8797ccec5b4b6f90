package graph

import (
	"testing"

	"github.com/lightning-gossipd/gossipd/lnwire"
	"github.com/stretchr/testify/require"
)

func TestValidateChannelAnnouncementAcceptsValidSignatures(t *testing.T) {
	n1, n2 := mustGenKey(t), mustGenKey(t)
	ann := signedChannelAnnouncement(t, n1, n2, lnwire.NewShortChanIDFromInt(1<<40))

	require.NoError(t, ValidateChannelAnnouncement(ann))
}

func TestValidateChannelAnnouncementRejectsTamperedSignature(t *testing.T) {
	n1, n2 := mustGenKey(t), mustGenKey(t)
	ann := signedChannelAnnouncement(t, n1, n2, lnwire.NewShortChanIDFromInt(1<<40))

	ann.NodeSig1[0] ^= 0xff

	require.Error(t, ValidateChannelAnnouncement(ann))
}

func TestValidateChannelAnnouncementRejectsTamperedBody(t *testing.T) {
	n1, n2 := mustGenKey(t), mustGenKey(t)
	ann := signedChannelAnnouncement(t, n1, n2, lnwire.NewShortChanIDFromInt(1<<40))

	ann.ShortChannelID = lnwire.NewShortChanIDFromInt(2 << 40)

	require.Error(t, ValidateChannelAnnouncement(ann))
}

func TestValidateNodeAnnouncement(t *testing.T) {
	key := mustGenKey(t)
	ann := signedNodeAnnouncement(t, key, "alice", 10)

	require.NoError(t, ValidateNodeAnnouncement(ann))

	ann.Alias, _ = lnwire.NewAlias("mallory")
	require.Error(t, ValidateNodeAnnouncement(ann))
}

func TestValidateChannelUpdate(t *testing.T) {
	key := mustGenKey(t)
	scid := lnwire.NewShortChanIDFromInt(1 << 40)
	upd := signedChannelUpdate(t, key, scid, 10, 0)

	require.NoError(t, ValidateChannelUpdate(key.PubKey(), upd))

	other := mustGenKey(t)
	require.Error(t, ValidateChannelUpdate(other.PubKey(), upd))
}
