package lnwire

import (
	"bytes"
	"io"
	"net"

	"github.com/btcsuite/btcd/btcec/v2"
)

// NodeAnnouncement announces the presence of a Lightning node and signals
// the addresses on which it accepts incoming connections. It is
// authenticated by a signature over the announcement body under the
// advertised node's public key.
type NodeAnnouncement struct {
	// Signature proves ownership of NodeID.
	Signature Sig

	// Features is the set of protocol features this node supports,
	// including gossip_queries.
	Features *RawFeatureVector

	// Timestamp allows ordering multiple announcements from the same
	// node; the engine only accepts a later one (spec.md §4.E:
	// "Enforce strictly monotonic timestamp").
	Timestamp uint32

	// NodeID identifies the announcing node.
	NodeID *btcec.PublicKey

	// RGBColor customizes the node's appearance in maps and graphs.
	RGBColor RGB

	// Alias customizes the node's display name.
	Alias Alias

	// Addresses are the announcable addresses on which this node accepts
	// incoming connections.
	Addresses []net.Addr
}

var _ Message = (*NodeAnnouncement)(nil)

// Decode deserializes a serialized NodeAnnouncement from r.
//
// This is part of the lnwire.Message interface.
func (a *NodeAnnouncement) Decode(r io.Reader, pver uint32) error {
	if a.Features == nil {
		a.Features = &RawFeatureVector{}
	}

	if err := readElements(r,
		&a.Signature,
	); err != nil {
		return err
	}
	if err := a.Features.Decode(r); err != nil {
		return err
	}
	return readElements(r,
		&a.Timestamp,
		&a.NodeID,
		&a.RGBColor,
		&a.Alias,
		&a.Addresses,
	)
}

// Encode serializes the target NodeAnnouncement into w.
//
// This is part of the lnwire.Message interface.
func (a *NodeAnnouncement) Encode(w io.Writer, pver uint32) error {
	if err := writeElement(w, a.Signature); err != nil {
		return err
	}
	if err := a.Features.Encode(w); err != nil {
		return err
	}
	return writeElements(w,
		a.Timestamp,
		a.NodeID,
		a.RGBColor,
		a.Alias,
		a.Addresses,
	)
}

// MsgType returns the integer uniquely identifying this message on the
// wire.
//
// This is part of the lnwire.Message interface.
func (a *NodeAnnouncement) MsgType() MessageType {
	return MsgNodeAnnouncement
}

// MaxPayloadLength returns the maximum allowed payload size for this
// message. The bulk of the variability comes from the address list.
//
// This is part of the lnwire.Message interface.
func (a *NodeAnnouncement) MaxPayloadLength(uint32) uint32 {
	return 8192
}

// DataToSign returns the part of the message that the signature covers:
// everything but the signature itself.
func (a *NodeAnnouncement) DataToSign() ([]byte, error) {
	var w bytes.Buffer

	if a.Features == nil {
		a.Features = &RawFeatureVector{}
	}
	if err := a.Features.Encode(&w); err != nil {
		return nil, err
	}

	err := writeElements(&w,
		a.Timestamp,
		a.NodeID,
		a.RGBColor,
		a.Alias,
		a.Addresses,
	)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// SameContent reports whether a and other describe the same addresses,
// alias, RGB color, and feature set, used by the local-channel policy to
// decide a fresh node announcement would be redundant (spec.md §4.E: "same
// addresses..., same alias, same rgb, same globalfeatures").
func (a *NodeAnnouncement) SameContent(other *NodeAnnouncement) bool {
	if len(a.Addresses) != len(other.Addresses) {
		return false
	}
	for i := range a.Addresses {
		if a.Addresses[i].String() != other.Addresses[i].String() {
			return false
		}
	}

	if a.Alias != other.Alias {
		return false
	}
	if a.RGBColor != other.RGBColor {
		return false
	}
	if !a.Features.Equal(other.Features) {
		return false
	}

	return true
}
