package lnwire

// code derived from https://github.com/lightningnetwork/lnd/blob/master/lnwire/message.go

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessagePayload is the maximum bytes a message can be regardless of
// other individual limits imposed by messages themselves.
const MaxMessagePayload = 65535 // 65KB

// MessageType is the unique 2 byte big-endian integer that indicates the
// type of message on the wire. All messages have a very simple header which
// consists simply of a 2-byte message type; we omit a length field and
// checksum as the Lightning protocol is intended to be encapsulated within
// a confidential, authenticated transport (out of scope here, see spec.md
// §1).
type MessageType uint16

// The message types this engine understands, covering the gossip messages
// proper plus the query-protocol and keep-alive messages defined in BOLT7.
const (
	MsgError                 MessageType = 17
	MsgPing                  MessageType = 18
	MsgPong                  MessageType = 19
	MsgChannelAnnouncement   MessageType = 256
	MsgNodeAnnouncement      MessageType = 257
	MsgChannelUpdate         MessageType = 258
	MsgReplyChannelRange     MessageType = 259
	MsgQueryShortChanIDs     MessageType = 261
	MsgReplyShortChanIDsEnd  MessageType = 262
	MsgGossipTimestampFilter MessageType = 263
	MsgQueryChannelRange     MessageType = 264
)

// UnknownMessage is returned when the wire type of an incoming message does
// not correspond to any message this engine understands. Per spec.md §4.B,
// a peer that sends one of these has its connection closed.
type UnknownMessage struct {
	messageType MessageType
}

// Error returns a human readable string describing the error.
//
// This is part of the error interface.
func (u *UnknownMessage) Error() string {
	return fmt.Sprintf("unable to parse message of unknown type: %v",
		u.messageType)
}

// Message is an interface that defines a lightning wire protocol message.
// The interface is general in order to allow implementing types full
// control over the representation of its data.
type Message interface {
	Decode(io.Reader, uint32) error
	Encode(io.Writer, uint32) error
	MsgType() MessageType
	MaxPayloadLength(uint32) uint32
}

// makeEmptyMessage creates a new empty message of the proper concrete type
// based on the passed message type.
func makeEmptyMessage(msgType MessageType) (Message, error) {
	var msg Message

	switch msgType {
	case MsgError:
		msg = &Error{}
	case MsgPing:
		msg = &Ping{}
	case MsgPong:
		msg = &Pong{}
	case MsgChannelAnnouncement:
		msg = &ChannelAnnouncement{}
	case MsgNodeAnnouncement:
		msg = &NodeAnnouncement{}
	case MsgChannelUpdate:
		msg = &ChannelUpdate{}
	case MsgReplyChannelRange:
		msg = &ReplyChannelRange{}
	case MsgQueryShortChanIDs:
		msg = &QueryShortChanIDs{}
	case MsgReplyShortChanIDsEnd:
		msg = &ReplyShortChanIDsEnd{}
	case MsgGossipTimestampFilter:
		msg = &GossipTimestampFilter{}
	case MsgQueryChannelRange:
		msg = &QueryChannelRange{}
	default:
		return nil, &UnknownMessage{messageType: msgType}
	}

	return msg, nil
}

// WriteMessage writes a lightning Message to w including the necessary
// header information and returns the number of bytes written.
func WriteMessage(w io.Writer, msg Message, pver uint32) (int, error) {
	totalBytes := 0

	var bw bytes.Buffer
	if err := msg.Encode(&bw, pver); err != nil {
		return totalBytes, err
	}
	payload := bw.Bytes()
	lenp := len(payload)

	if lenp > MaxMessagePayload {
		return totalBytes, fmt.Errorf("message payload is too large - "+
			"encoded %d bytes, but maximum message payload is %d bytes",
			lenp, MaxMessagePayload)
	}

	mpl := msg.MaxPayloadLength(pver)
	if uint32(lenp) > mpl {
		return totalBytes, fmt.Errorf("message payload is too large - "+
			"encoded %d bytes, but maximum message payload of "+
			"type %x is %d bytes", lenp, msg.MsgType(), mpl)
	}

	var mType [2]byte
	binary.BigEndian.PutUint16(mType[:], uint16(msg.MsgType()))
	n, err := w.Write(mType[:])
	totalBytes += n
	if err != nil {
		return totalBytes, err
	}

	n, err = w.Write(payload)
	totalBytes += n

	return totalBytes, err
}

// ReadMessage reads, validates, and parses the next Lightning message from r
// for the provided protocol version.
func ReadMessage(r io.Reader, pver uint32) (Message, error) {
	var mType [2]byte
	if _, err := io.ReadFull(r, mType[:]); err != nil {
		return nil, err
	}

	msgType := MessageType(binary.BigEndian.Uint16(mType[:]))

	msg, err := makeEmptyMessage(msgType)
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r, pver); err != nil {
		return nil, err
	}

	return msg, nil
}
