package lnwire

import "fmt"

// ShortChannelID represents the set of data which is needed to retrieve all
// necessary data to validate the channel existence. It packs a block
// height, transaction index within that block, and an output index into a
// single 64-bit integer, with a total order given by that integer.
type ShortChannelID struct {
	// BlockHeightField is the height of the block where the funding
	// transaction was confirmed.
	BlockHeightField uint32

	// TxIndexField is the index of the funding transaction within the
	// block.
	TxIndexField uint32

	// TxPositionField is the output index within the funding transaction
	// that identifies this channel.
	TxPositionField uint16
}

// NewShortChanIDFromInt converts the serialized, packed format of a short
// channel id (as used on the wire and as the sort key of the graph's edge
// index) into its component parts.
func NewShortChanIDFromInt(id uint64) ShortChannelID {
	return ShortChannelID{
		BlockHeightField: uint32(id >> 40),
		TxIndexField:     uint32(id>>16) & 0xFFFFFF,
		TxPositionField:  uint16(id),
	}
}

// ToUint64 packs the short channel id back into the single 64-bit integer
// used as its total order: block height in the high 24 bits, tx index in
// the next 24 bits, and output index in the low 16 bits.
func (c ShortChannelID) ToUint64() uint64 {
	return (uint64(c.BlockHeightField) << 40) |
		(uint64(c.TxIndexField) << 16) |
		uint64(c.TxPositionField)
}

// BlockHeight returns the height of the block this channel's funding
// transaction was confirmed in.
func (c ShortChannelID) BlockHeight() uint32 {
	return c.BlockHeightField
}

// String returns a human-readable string of the block height, tx index,
// and output index the id encodes.
func (c ShortChannelID) String() string {
	return fmt.Sprintf("%dx%dx%d", c.BlockHeightField, c.TxIndexField,
		c.TxPositionField)
}

// Less reports whether c sorts strictly before o under the 64-bit total
// order (block, then tx index, then output index).
func (c ShortChannelID) Less(o ShortChannelID) bool {
	return c.ToUint64() < o.ToUint64()
}
