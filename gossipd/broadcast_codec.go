package gossipd

import (
	"bytes"
	"fmt"

	"github.com/lightning-gossipd/gossipd/graph"
	"github.com/lightning-gossipd/gossipd/lnwire"
)

// decodeBroadcastEntry reconstructs the lnwire.Message an append-only
// broadcast log entry represents, so the pacer can relay it to a peer
// (spec.md §4.C). The graph package stores only the opaque bytes accepted
// at validation time; gossipd is the layer that speaks the wire protocol.
func decodeBroadcastEntry(entry *graph.BroadcastEntry) (lnwire.Message, error) {
	r := bytes.NewReader(entry.Payload)

	switch entry.Type {
	case lnwire.MsgChannelAnnouncement:
		msg := &lnwire.ChannelAnnouncement{}
		if err := msg.Decode(r, wireProtocolVersion); err != nil {
			return nil, err
		}
		return msg, nil

	case lnwire.MsgChannelUpdate:
		msg := &lnwire.ChannelUpdate{}
		if err := msg.Decode(r, wireProtocolVersion); err != nil {
			return nil, err
		}
		return msg, nil

	case lnwire.MsgNodeAnnouncement:
		msg := &lnwire.NodeAnnouncement{}
		if err := msg.Decode(r, wireProtocolVersion); err != nil {
			return nil, err
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("unsupported broadcast log entry type %v",
			entry.Type)
	}
}
