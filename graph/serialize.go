package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lightning-gossipd/gossipd/lnwire"
)

// The wire protocol version used for all persisted copies of gossip
// messages. The graph never talks to a peer directly, so this is purely an
// argument the lnwire codec requires; spec.md doesn't define a persistence
// wire version, so 0 is as good as any fixed constant.
const storeProtocolVersion = 0

func serializeNode(n *LightningNode) ([]byte, error) {
	var buf bytes.Buffer

	if n.RawAnnouncement == nil {
		buf.WriteByte(0)
		buf.Write(n.PubKeyBytes[:])
		return buf.Bytes(), nil
	}

	buf.WriteByte(1)
	if err := n.RawAnnouncement.Encode(&buf, storeProtocolVersion); err != nil {
		return nil, fmt.Errorf("unable to serialize node announcement: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeNode(raw []byte) (*LightningNode, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("empty node record")
	}

	if raw[0] == 0 {
		n := &LightningNode{}
		if len(raw) < 1+33 {
			return nil, fmt.Errorf("truncated bare node record")
		}
		copy(n.PubKeyBytes[:], raw[1:1+33])
		return n, nil
	}

	ann := &lnwire.NodeAnnouncement{}
	if err := ann.Decode(bytes.NewReader(raw[1:]), storeProtocolVersion); err != nil {
		return nil, fmt.Errorf("unable to deserialize node announcement: %w", err)
	}

	var id NodeID
	copy(id[:], ann.NodeID.SerializeCompressed())

	return &LightningNode{
		PubKeyBytes:          id,
		HaveNodeAnnouncement: true,
		LastUpdate:           ann.Timestamp,
		Addresses:            ann.Addresses,
		Alias:                ann.Alias.String(),
		Color:                ann.RGBColor,
		Features:             ann.Features,
		AuthSig:              ann.Signature,
		RawAnnouncement:      ann,
	}, nil
}

// serializeEdge encodes an edge with a one-byte tag distinguishing a
// publicly announced channel (1, full ChannelAnnouncement follows) from a
// private LOCAL_ADD_CHANNEL-only one (0, bare endpoint keys follow) —
// spec.md §4.E's local channels that never acquire a channel_announcement
// at all. The same scheme as serializeNode's bare/full tag.
func serializeEdge(e *ChannelEdgeInfo) ([]byte, error) {
	var buf bytes.Buffer

	if e.RawAnnouncement == nil {
		buf.WriteByte(0)
		buf.Write(e.NodeKey1Bytes[:])
		buf.Write(e.NodeKey2Bytes[:])
	} else {
		buf.WriteByte(1)
		if err := e.RawAnnouncement.Encode(&buf, storeProtocolVersion); err != nil {
			return nil, fmt.Errorf("unable to serialize channel announcement: %w", err)
		}
	}

	var capBuf [8]byte
	binary.BigEndian.PutUint64(capBuf[:], uint64(e.Capacity))
	buf.Write(capBuf[:])

	var opLen [2]byte
	binary.BigEndian.PutUint16(opLen[:], uint16(len(e.FundingOutPoint)))
	buf.Write(opLen[:])
	buf.WriteString(e.FundingOutPoint)

	public := byte(0)
	if e.Public {
		public = 1
	}
	buf.WriteByte(public)

	return buf.Bytes(), nil
}

// deserializeEdge reconstructs an edge from its persisted form. key is the
// scid the record was stored under, needed to recover ChannelID for a bare
// (private, unannounced) edge that carries no ChannelAnnouncement of its
// own to read it back from.
func deserializeEdge(key, raw []byte) (*ChannelEdgeInfo, error) {
	r := bytes.NewReader(raw)

	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("empty edge record")
	}

	var (
		ann      *lnwire.ChannelAnnouncement
		id1, id2 NodeID
	)
	if tag == 0 {
		if _, err := io.ReadFull(r, id1[:]); err != nil {
			return nil, fmt.Errorf("truncated bare edge record: %w", err)
		}
		if _, err := io.ReadFull(r, id2[:]); err != nil {
			return nil, fmt.Errorf("truncated bare edge record: %w", err)
		}
	} else {
		ann = &lnwire.ChannelAnnouncement{}
		if err := ann.Decode(r, storeProtocolVersion); err != nil {
			return nil, fmt.Errorf("unable to deserialize channel announcement: %w", err)
		}
		copy(id1[:], ann.NodeID1.SerializeCompressed())
		copy(id2[:], ann.NodeID2.SerializeCompressed())
	}

	var capBuf [8]byte
	if _, err := io.ReadFull(r, capBuf[:]); err != nil {
		return nil, fmt.Errorf("truncated edge capacity: %w", err)
	}
	capacity := int64(binary.BigEndian.Uint64(capBuf[:]))

	var opLen [2]byte
	if _, err := io.ReadFull(r, opLen[:]); err != nil {
		return nil, fmt.Errorf("truncated edge outpoint length: %w", err)
	}
	opBuf := make([]byte, binary.BigEndian.Uint16(opLen[:]))
	if _, err := io.ReadFull(r, opBuf); err != nil {
		return nil, fmt.Errorf("truncated edge outpoint: %w", err)
	}

	public, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("truncated edge public flag: %w", err)
	}

	scid := lnwire.NewShortChanIDFromInt(binary.BigEndian.Uint64(key))
	if ann != nil {
		scid = ann.ShortChannelID
	}

	return &ChannelEdgeInfo{
		ChannelID:       scid,
		NodeKey1Bytes:   id1,
		NodeKey2Bytes:   id2,
		Capacity:        capacity,
		FundingOutPoint: string(opBuf),
		Public:          public == 1,
		RawAnnouncement: ann,
	}, nil
}

func serializePolicy(p *ChannelEdgePolicy) ([]byte, error) {
	var buf bytes.Buffer
	if p.RawUpdate == nil {
		return nil, fmt.Errorf("channel policy %v/%d missing its update",
			p.ChannelID, p.Direction())
	}
	if err := p.RawUpdate.Encode(&buf, storeProtocolVersion); err != nil {
		return nil, fmt.Errorf("unable to serialize channel update: %w", err)
	}

	local := byte(0)
	if p.LocalDisabled {
		local = 1
	}
	buf.WriteByte(local)

	return buf.Bytes(), nil
}

func deserializePolicy(raw []byte) (*ChannelEdgePolicy, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("empty policy record")
	}

	upd := &lnwire.ChannelUpdate{}
	if err := upd.Decode(bytes.NewReader(raw[:len(raw)-1]), storeProtocolVersion); err != nil {
		return nil, fmt.Errorf("unable to deserialize channel update: %w", err)
	}

	return &ChannelEdgePolicy{
		ChannelID:                 upd.ShortChannelID,
		LastUpdate:                upd.Timestamp,
		Flags:                     upd.ChannelFlags,
		TimeLockDelta:             upd.TimeLockDelta,
		MinHTLC:                   upd.HtlcMinimumMsat,
		MaxHTLC:                   upd.HtlcMaximumMsat,
		FeeBaseMsat:               upd.BaseFee,
		FeeProportionalMillionths: upd.FeeRate,
		LocalDisabled:             raw[len(raw)-1] == 1,
		RawUpdate:                 upd,
	}, nil
}

func serializeBroadcastEntry(e *BroadcastEntry) []byte {
	buf := make([]byte, 4+2+len(e.Payload))
	binary.BigEndian.PutUint32(buf[0:4], e.Timestamp)
	binary.BigEndian.PutUint16(buf[4:6], uint16(e.Type))
	copy(buf[6:], e.Payload)
	return buf
}

func deserializeBroadcastEntry(index uint64, raw []byte) *BroadcastEntry {
	return &BroadcastEntry{
		Index:     index,
		Timestamp: binary.BigEndian.Uint32(raw[0:4]),
		Type:      lnwire.MessageType(binary.BigEndian.Uint16(raw[4:6])),
		Payload:   append([]byte(nil), raw[6:]...),
	}
}
