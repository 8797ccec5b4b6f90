package lnwire

import "io"

// QueryChannelRange asks a peer to enumerate every channel it knows of
// whose funding transaction confirmed in the half-open block range
// [FirstBlockHeight, FirstBlockHeight+NumBlocks).
type QueryChannelRange struct {
	ChainHash        ChainHash
	FirstBlockHeight uint32
	NumBlocks        uint32
}

var _ Message = (*QueryChannelRange)(nil)

func (q *QueryChannelRange) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &q.ChainHash, &q.FirstBlockHeight, &q.NumBlocks)
}

func (q *QueryChannelRange) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, q.ChainHash, q.FirstBlockHeight, q.NumBlocks)
}

func (q *QueryChannelRange) MsgType() MessageType { return MsgQueryChannelRange }

func (q *QueryChannelRange) MaxPayloadLength(uint32) uint32 { return 32 + 4 + 4 }

// LastBlockHeight returns the exclusive upper bound of the queried range.
func (q *QueryChannelRange) LastBlockHeight() uint32 {
	return q.FirstBlockHeight + q.NumBlocks
}

// ReplyChannelRangeOverhead is the number of bytes the fixed fields of a
// ReplyChannelRange consume on the wire, including the 2-byte message type:
// chain_hash(32) + first_block(4) + num_blocks(4) + complete(1) + type(2).
// See spec.md §4.D.
const ReplyChannelRangeOverhead = 32 + 4 + 4 + 1 + 2

// MaxReplyChannelRangeBody is the largest an EncodedSCIDs body may be while
// still fitting in a single reply_channel_range message: the wire's
// MaxMessagePayload minus the 2-byte length prefix and the fixed header.
const MaxReplyChannelRangeBody = MaxMessagePayload - 2 - ReplyChannelRangeOverhead

// ReplyChannelRange answers a QueryChannelRange with the set of short
// channel ids whose block lies in the queried range, possibly split across
// several messages if the encoded set doesn't fit in one (spec.md §4.D).
type ReplyChannelRange struct {
	ChainHash        ChainHash
	FirstBlockHeight uint32
	NumBlocks        uint32
	Complete         bool
	EncodedSCIDs     []byte
}

var _ Message = (*ReplyChannelRange)(nil)

func (r *ReplyChannelRange) Decode(reader io.Reader, pver uint32) error {
	return readElements(reader,
		&r.ChainHash,
		&r.FirstBlockHeight,
		&r.NumBlocks,
		&r.Complete,
		&r.EncodedSCIDs,
	)
}

func (r *ReplyChannelRange) Encode(w io.Writer, pver uint32) error {
	return writeElements(w,
		r.ChainHash,
		r.FirstBlockHeight,
		r.NumBlocks,
		r.Complete,
		r.EncodedSCIDs,
	)
}

func (r *ReplyChannelRange) MsgType() MessageType { return MsgReplyChannelRange }

func (r *ReplyChannelRange) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// LastBlockHeight returns the exclusive upper bound of the covered range.
func (r *ReplyChannelRange) LastBlockHeight() uint32 {
	return r.FirstBlockHeight + r.NumBlocks
}
