package lnwire

import "io"

// GossipTimestampFilter installs a timestamp window on the connection: only
// messages whose own timestamp falls in [FirstTimestamp, FirstTimestamp +
// TimestampRange) will be relayed afterwards (spec.md §3 gossip_window,
// §4.B).
type GossipTimestampFilter struct {
	ChainHash      ChainHash
	FirstTimestamp uint32
	TimestampRange uint32
}

var _ Message = (*GossipTimestampFilter)(nil)

func (f *GossipTimestampFilter) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &f.ChainHash, &f.FirstTimestamp, &f.TimestampRange)
}

func (f *GossipTimestampFilter) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, f.ChainHash, f.FirstTimestamp, f.TimestampRange)
}

func (f *GossipTimestampFilter) MsgType() MessageType {
	return MsgGossipTimestampFilter
}

func (f *GossipTimestampFilter) MaxPayloadLength(uint32) uint32 {
	return 32 + 4 + 4
}
