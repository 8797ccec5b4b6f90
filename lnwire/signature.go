package lnwire

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Sig is a fixed-size, wire-format Lightning signature: the 32-byte R and
// 32-byte S values of an ECDSA signature, concatenated. Unlike DER this has
// no variable length, which keeps every gossip message's MaxPayloadLength
// exact.
type Sig [64]byte

// NewSigFromSignature converts a DER-encoded ecdsa.Signature into the
// 64-byte fixed representation used on the wire, by picking the raw R and
// S integers out of the DER sequence and left-padding each to 32 bytes.
func NewSigFromSignature(sig *ecdsa.Signature) (Sig, error) {
	if sig == nil {
		return Sig{}, fmt.Errorf("cannot create signature from nil")
	}

	r, s, err := parseDER(sig.Serialize())
	if err != nil {
		return Sig{}, err
	}

	var b Sig
	copy(b[32-len(r):32], r)
	copy(b[64-len(s):64], s)

	return b, nil
}

// parseDER extracts the raw (unsigned, minimal) R and S integers out of a
// DER-encoded ECDSA signature: 0x30 len 0x02 rlen r 0x02 slen s.
func parseDER(der []byte) (r, s []byte, err error) {
	if len(der) < 8 || der[0] != 0x30 {
		return nil, nil, fmt.Errorf("invalid DER signature")
	}

	off := 2
	if der[1] == 0x81 {
		off = 3
	}

	if off >= len(der) || der[off] != 0x02 {
		return nil, nil, fmt.Errorf("invalid DER signature: missing R marker")
	}
	rLen := int(der[off+1])
	rStart := off + 2
	if rStart+rLen > len(der) {
		return nil, nil, fmt.Errorf("invalid DER signature: R overruns buffer")
	}
	r = stripLeadingZero(der[rStart : rStart+rLen])

	sOff := rStart + rLen
	if sOff >= len(der) || der[sOff] != 0x02 {
		return nil, nil, fmt.Errorf("invalid DER signature: missing S marker")
	}
	sLen := int(der[sOff+1])
	sStart := sOff + 2
	if sStart+sLen > len(der) {
		return nil, nil, fmt.Errorf("invalid DER signature: S overruns buffer")
	}
	s = stripLeadingZero(der[sStart : sStart+sLen])

	return r, s, nil
}

func stripLeadingZero(b []byte) []byte {
	for len(b) > 1 && b[0] == 0x00 {
		b = b[1:]
	}
	return b
}

// ToSignature reconstructs the ecdsa.Signature from its fixed-size wire
// encoding so it can be handed to Verify.
func (s Sig) ToSignature() (*ecdsa.Signature, error) {
	var r, sVal btcec.ModNScalar
	r.SetByteSlice(s[0:32])
	sVal.SetByteSlice(s[32:64])

	return ecdsa.NewSignature(&r, &sVal), nil
}

// Verify returns true if the signature is a valid ECDSA signature of
// dataHash under pubKey.
func (s Sig) Verify(dataHash []byte, pubKey *btcec.PublicKey) bool {
	sig, err := s.ToSignature()
	if err != nil {
		return false
	}

	return sig.Verify(dataHash, pubKey)
}
