package lnwire

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
)

// ShortChanIDEncoding is the envelope byte prefixing an encoded list of
// short channel ids, per spec.md §4.A.
type ShortChanIDEncoding uint8

const (
	// EncodingSortedPlain is the plain, uncompressed concatenation of
	// 8-byte big-endian short channel ids.
	EncodingSortedPlain ShortChanIDEncoding = 0

	// EncodingSortedZlib is the same concatenation, deflated with zlib.
	EncodingSortedZlib ShortChanIDEncoding = 1
)

// EncodeShortChanIDs serializes ids as the envelope tag followed by the
// 8-byte-per-id body, attempting zlib compression and keeping whichever
// representation is smaller, per spec.md §4.A. maxBytes bounds the total
// encoded size (tag + body); exceeding it is an error.
func EncodeShortChanIDs(ids []ShortChannelID, maxBytes int) ([]byte, error) {
	raw := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint64(raw[i*8:], id.ToUint64())
	}

	body := raw
	tag := EncodingSortedPlain

	var zbuf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&zbuf, zlib.BestCompression)
	if err == nil {
		if _, err := zw.Write(raw); err == nil {
			if err := zw.Close(); err == nil && zbuf.Len() < len(raw) {
				body = zbuf.Bytes()
				tag = EncodingSortedZlib
			}
		}
	}

	total := 1 + len(body)
	if total > maxBytes {
		return nil, fmt.Errorf("encoded short channel id list of %d "+
			"bytes exceeds maximum of %d bytes", total, maxBytes)
	}

	out := make([]byte, 0, total)
	out = append(out, byte(tag))
	out = append(out, body...)

	return out, nil
}

// DecodeShortChanIDs parses the envelope written by EncodeShortChanIDs.
// maxInflate bounds the size of the buffer the zlib envelope is allowed to
// inflate into, guarding against a small input expanding to an unbounded
// amount of memory.
func DecodeShortChanIDs(data []byte, maxInflate int) ([]ShortChannelID, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("short channel id list too short")
	}

	tag := ShortChanIDEncoding(data[0])
	body := data[1:]

	var raw []byte
	switch tag {
	case EncodingSortedPlain:
		raw = body

	case EncodingSortedZlib:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("unable to open zlib reader: %w", err)
		}
		defer zr.Close()

		limited := io.LimitReader(zr, int64(maxInflate)+1)
		raw, err = ioutil.ReadAll(limited)
		if err != nil {
			return nil, fmt.Errorf("unable to inflate short channel "+
				"id list: %w", err)
		}
		if len(raw) > maxInflate {
			return nil, fmt.Errorf("inflated short channel id list "+
				"exceeds maximum of %d bytes", maxInflate)
		}

	default:
		// Any other envelope value reaching the codec is an internal
		// invariant violation per spec.md §4.A: the wire parser should
		// never have handed us an unrecognized tag.
		panic(fmt.Sprintf("unknown short channel id encoding %d "+
			"reached codec", tag))
	}

	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("malformed short channel id list: "+
			"%d bytes is not a multiple of 8", len(raw))
	}

	ids := make([]ShortChannelID, len(raw)/8)
	for i := range ids {
		ids[i] = NewShortChanIDFromInt(binary.BigEndian.Uint64(raw[i*8:]))
	}

	return ids, nil
}
