package lnwire

import "io"

// Error is sent to a peer to report a protocol violation or a graph
// rejection (spec.md §7, severities 2 and 3). An all-zero ChannelID
// addresses the connection as a whole rather than one channel.
type Error struct {
	ChannelID [32]byte
	Data      []byte
}

var _ Message = (*Error)(nil)

func (e *Error) Decode(r io.Reader, pver uint32) error {
	if _, err := io.ReadFull(r, e.ChannelID[:]); err != nil {
		return err
	}
	return readElement(r, &e.Data)
}

func (e *Error) Encode(w io.Writer, pver uint32) error {
	if _, err := w.Write(e.ChannelID[:]); err != nil {
		return err
	}
	return writeElement(w, e.Data)
}

func (e *Error) MsgType() MessageType { return MsgError }

func (e *Error) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// NewGlobalError builds an Error addressed to the connection as a whole
// (a zeroed ChannelID), used for peer protocol violations.
func NewGlobalError(msg string) *Error {
	return &Error{Data: []byte(msg)}
}
