package lnwire

import "io"

// MaxPongBytes bounds how large a pong payload we'll ever construct or
// request: spec.md §8 "A pong with requested length ≥ 65532 yields a
// control reply immediately and never increments outstanding_pings".
const MaxPongBytes = 65531

// NoReplyThreshold is the requested pong length at and above which BOLT1
// says no reply is expected at all (spec.md §4.F, §9 "preserved as-is").
const NoReplyThreshold = 65532

// Ping is sent periodically to check liveness of the connection and to
// keep it alive through NATs and firewalls.
type Ping struct {
	NumPongBytes uint16
	PaddingBytes []byte
}

var _ Message = (*Ping)(nil)

func (p *Ping) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &p.NumPongBytes, &p.PaddingBytes)
}

func (p *Ping) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, p.NumPongBytes, p.PaddingBytes)
}

func (p *Ping) MsgType() MessageType { return MsgPing }

func (p *Ping) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }

// Pong is the reply to a Ping, carrying NumPongBytes of padding.
type Pong struct {
	PongBytes []byte
}

var _ Message = (*Pong)(nil)

func (p *Pong) Decode(r io.Reader, pver uint32) error {
	return readElements(r, &p.PongBytes)
}

func (p *Pong) Encode(w io.Writer, pver uint32) error {
	return writeElements(w, p.PongBytes)
}

func (p *Pong) MsgType() MessageType { return MsgPong }

func (p *Pong) MaxPayloadLength(uint32) uint32 { return MaxMessagePayload }
