package lnwire

import "io"

// QueryShortChanIDs asks a peer to resolve a specific set of short channel
// ids to their full announcements and latest updates (spec.md §4.D).
type QueryShortChanIDs struct {
	ChainHash   ChainHash
	EncodedSCIDs []byte
}

var _ Message = (*QueryShortChanIDs)(nil)

func (q *QueryShortChanIDs) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &q.ChainHash, &q.EncodedSCIDs)
}

func (q *QueryShortChanIDs) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, q.ChainHash, q.EncodedSCIDs)
}

func (q *QueryShortChanIDs) MsgType() MessageType { return MsgQueryShortChanIDs }

func (q *QueryShortChanIDs) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// ReplyShortChanIDsEnd terminates the reply sequence to a QueryShortChanIDs,
// with Complete signaling whether the replying node actually held
// information on every requested channel.
type ReplyShortChanIDsEnd struct {
	ChainHash ChainHash
	Complete  bool
}

var _ Message = (*ReplyShortChanIDsEnd)(nil)

func (r *ReplyShortChanIDsEnd) Decode(reader io.Reader, pver uint32) error {
	return readElements(reader, &r.ChainHash, &r.Complete)
}

func (r *ReplyShortChanIDsEnd) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, r.ChainHash, r.Complete)
}

func (r *ReplyShortChanIDsEnd) MsgType() MessageType { return MsgReplyShortChanIDsEnd }

func (r *ReplyShortChanIDsEnd) MaxPayloadLength(uint32) uint32 { return 32 + 1 }
