package lnwire

// code derived from https://github.com/lightningnetwork/lnd/blob/master/lnwire/lnwire.go

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxSliceLength is the maximum number of elements we'll ever read out of a
// single length-prefixed slice on the wire. It exists purely as a sanity
// bound against a peer claiming an absurd length and then starving the
// connection waiting for bytes that never arrive.
const MaxSliceLength = 65535

// writeElement serializes a single element into the passed io.Writer. This
// function is used in the implementation of Message.Encode for several
// messages as it's a generic method to serialize primitives and lnwire
// specific data structures.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case ChainHash:
		if _, err := w.Write(e[:]); err != nil {
			return err
		}
	case chainhash.Hash:
		if _, err := w.Write(e[:]); err != nil {
			return err
		}
	case ShortChannelID:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e.ToUint64())
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case uint8:
		if _, err := w.Write([]byte{e}); err != nil {
			return err
		}
	case uint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], e)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case uint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], e)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case uint64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], e)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	case bool:
		var b byte
		if e {
			b = 1
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return err
		}
	case *btcec.PublicKey:
		if e == nil {
			return fmt.Errorf("cannot write nil public key")
		}
		if _, err := w.Write(e.SerializeCompressed()); err != nil {
			return err
		}
	case Sig:
		if _, err := w.Write(e[:]); err != nil {
			return err
		}
	case RGB:
		if _, err := w.Write([]byte{e.Red, e.Green, e.Blue}); err != nil {
			return err
		}
	case Alias:
		if _, err := w.Write(e.data[:]); err != nil {
			return err
		}
	case []byte:
		if err := writeElement(w, uint16(len(e))); err != nil {
			return err
		}
		if _, err := w.Write(e); err != nil {
			return err
		}
	case []net.Addr:
		return writeNetAddrs(w, e)
	default:
		return fmt.Errorf("unknown type %T passed to writeElement", e)
	}

	return nil
}

// writeElements serializes a variadic list of elements in order into the
// passed io.Writer.
func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

// readElement deserializes a single element from the passed io.Reader into
// the passed pointer, mirroring the encoding rules of writeElement.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *ChainHash:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}
	case *chainhash.Hash:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}
	case *ShortChannelID:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = NewShortChanIDFromInt(binary.BigEndian.Uint64(b[:]))
	case *uint8:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0]
	case *uint16:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint16(b[:])
	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint32(b[:])
	case *uint64:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.BigEndian.Uint64(b[:])
	case *bool:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = b[0] != 0
	case **btcec.PublicKey:
		var b [33]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		pub, err := btcec.ParsePubKey(b[:])
		if err != nil {
			return err
		}
		*e = pub
	case *Sig:
		if _, err := io.ReadFull(r, e[:]); err != nil {
			return err
		}
	case *RGB:
		var b [3]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		e.Red, e.Green, e.Blue = b[0], b[1], b[2]
	case *Alias:
		var b [32]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		a, err := newAlias(b[:])
		if err != nil {
			return err
		}
		*e = a
	case *[]byte:
		var l uint16
		if err := readElement(r, &l); err != nil {
			return err
		}
		if l > MaxSliceLength {
			return fmt.Errorf("refusing to allocate %d byte slice", l)
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		*e = buf
	case *[]net.Addr:
		addrs, err := readNetAddrs(r)
		if err != nil {
			return err
		}
		*e = addrs
	default:
		return fmt.Errorf("unknown type %T passed to readElement", e)
	}

	return nil
}

// readElements deserializes a variadic list of elements in order from the
// passed io.Reader.
func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}
