package lnwire

import (
	"bytes"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ChannelAnnouncement proves the existence of a channel between two nodes
// by carrying four signatures: each node's signature over the announcement,
// and each node's bitcoin key's signature, attesting to control of the
// funding output's keys.
type ChannelAnnouncement struct {
	NodeSig1    Sig
	NodeSig2    Sig
	BitcoinSig1 Sig
	BitcoinSig2 Sig

	Features *RawFeatureVector

	ChainHash       ChainHash
	ShortChannelID  ShortChannelID
	NodeID1         *btcec.PublicKey
	NodeID2         *btcec.PublicKey
	BitcoinKey1     *btcec.PublicKey
	BitcoinKey2     *btcec.PublicKey
}

var _ Message = (*ChannelAnnouncement)(nil)

// DataToSign returns the part of the message covered by all four
// signatures.
func (a *ChannelAnnouncement) DataToSign() ([]byte, error) {
	var w bytes.Buffer

	if a.Features == nil {
		a.Features = &RawFeatureVector{}
	}
	if err := a.Features.Encode(&w); err != nil {
		return nil, err
	}

	err := writeElements(&w,
		a.ChainHash,
		a.ShortChannelID,
		a.NodeID1,
		a.NodeID2,
		a.BitcoinKey1,
		a.BitcoinKey2,
	)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// Decode deserializes a ChannelAnnouncement from r.
func (a *ChannelAnnouncement) Decode(r io.Reader, pver uint32) error {
	if a.Features == nil {
		a.Features = &RawFeatureVector{}
	}

	err := readElements(r,
		&a.NodeSig1,
		&a.NodeSig2,
		&a.BitcoinSig1,
		&a.BitcoinSig2,
	)
	if err != nil {
		return err
	}
	if err := a.Features.Decode(r); err != nil {
		return err
	}

	return readElements(r,
		&a.ChainHash,
		&a.ShortChannelID,
		&a.NodeID1,
		&a.NodeID2,
		&a.BitcoinKey1,
		&a.BitcoinKey2,
	)
}

// Encode serializes a into w.
func (a *ChannelAnnouncement) Encode(w io.Writer, pver uint32) error {
	err := writeElements(w,
		a.NodeSig1,
		a.NodeSig2,
		a.BitcoinSig1,
		a.BitcoinSig2,
	)
	if err != nil {
		return err
	}
	if err := a.Features.Encode(w); err != nil {
		return err
	}

	return writeElements(w,
		a.ChainHash,
		a.ShortChannelID,
		a.NodeID1,
		a.NodeID2,
		a.BitcoinKey1,
		a.BitcoinKey2,
	)
}

// MsgType returns the message's wire type.
func (a *ChannelAnnouncement) MsgType() MessageType {
	return MsgChannelAnnouncement
}

// MaxPayloadLength returns the maximum allowed payload for this message.
func (a *ChannelAnnouncement) MaxPayloadLength(uint32) uint32 {
	return 8192
}
