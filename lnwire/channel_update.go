package lnwire

import (
	"bytes"
	"io"
)

// ChanUpdateFlag packs the direction bit and the disable bit of a channel
// update's flags byte.
type ChanUpdateFlag uint16

const (
	// ChanUpdateDirection is set when this update describes the policy
	// of node2 -> node1 rather than node1 -> node2.
	ChanUpdateDirection ChanUpdateFlag = 1

	// ChanUpdateDisabled marks the advertised half-channel as disabled.
	ChanUpdateDisabled ChanUpdateFlag = 1 << 1
)

// ChannelUpdate carries one node's current routing policy for one direction
// of a channel: fees, expiry delta, and htlc bounds. A fresh timestamp
// re-announces the same channel to resist pruning (a "keep-alive update",
// see GLOSSARY).
type ChannelUpdate struct {
	Signature Sig

	ChainHash      ChainHash
	ShortChannelID ShortChannelID
	Timestamp      uint32
	MessageFlags   uint8
	ChannelFlags   uint8
	TimeLockDelta  uint16
	HtlcMinimumMsat uint64
	BaseFee        uint32
	FeeRate        uint32
	HtlcMaximumMsat uint64
}

var _ Message = (*ChannelUpdate)(nil)

// IsDisabled reports whether the disable bit is set in ChannelFlags.
func (c *ChannelUpdate) IsDisabled() bool {
	return c.ChannelFlags&uint8(ChanUpdateDisabled) != 0
}

// Direction returns the direction bit (0 or 1) this update applies to.
func (c *ChannelUpdate) Direction() uint8 {
	return c.ChannelFlags & uint8(ChanUpdateDirection)
}

// DataToSign returns the part of the message covered by Signature.
func (c *ChannelUpdate) DataToSign() ([]byte, error) {
	var w bytes.Buffer
	err := writeElements(&w,
		c.ChainHash,
		c.ShortChannelID,
		c.Timestamp,
		c.MessageFlags,
		c.ChannelFlags,
		c.TimeLockDelta,
		c.HtlcMinimumMsat,
		c.BaseFee,
		c.FeeRate,
		c.HtlcMaximumMsat,
	)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode deserializes a ChannelUpdate from r.
func (c *ChannelUpdate) Decode(r io.Reader, pver uint32) error {
	return readElements(r,
		&c.Signature,
		&c.ChainHash,
		&c.ShortChannelID,
		&c.Timestamp,
		&c.MessageFlags,
		&c.ChannelFlags,
		&c.TimeLockDelta,
		&c.HtlcMinimumMsat,
		&c.BaseFee,
		&c.FeeRate,
		&c.HtlcMaximumMsat,
	)
}

// Encode serializes c into w.
func (c *ChannelUpdate) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		c.Signature,
		c.ChainHash,
		c.ShortChannelID,
		c.Timestamp,
		c.MessageFlags,
		c.ChannelFlags,
		c.TimeLockDelta,
		c.HtlcMinimumMsat,
		c.BaseFee,
		c.FeeRate,
		c.HtlcMaximumMsat,
	)
}

// MsgType returns the message's wire type.
func (c *ChannelUpdate) MsgType() MessageType {
	return MsgChannelUpdate
}

// MaxPayloadLength returns the maximum allowed payload for this message.
func (c *ChannelUpdate) MaxPayloadLength(uint32) uint32 {
	return 8192
}
