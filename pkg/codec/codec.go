// Package codec provides the byte-array key/value serializers the engine
// treats as an external collaborator: it never interprets a key or value
// beyond comparing and copying its encoded bytes, so any codec whose
// encoding preserves the intended ordering works as either a key or a
// value codec.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Codec converts between an in-memory value and the byte slice the
// engine persists, compares (for keys) and hands back to callers (for
// values). Name identifies the codec in a tree's BTreeInfo record so a
// reopened file can be checked against the codec the caller supplies.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
	Name() string
}

// Bytes is the identity codec: values are already []byte, compared
// lexicographically. Use it for opaque blobs or pre-encoded keys.
type Bytes struct{}

// Encode requires v to be a []byte and returns it unchanged.
func (Bytes) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, &TypeError{Want: "[]byte", Got: v}
	}
	return b, nil
}

// Decode returns b unchanged.
func (Bytes) Decode(b []byte) (any, error) {
	return b, nil
}

// Name identifies this codec for BTreeInfo.
func (Bytes) Name() string { return "bytes" }

// Uint64BigEndian encodes uint64 values as 8-byte big-endian integers, so
// byte-wise key comparison matches numeric order.
type Uint64BigEndian struct{}

// Encode requires v to be a uint64.
func (Uint64BigEndian) Encode(v any) ([]byte, error) {
	n, ok := v.(uint64)
	if !ok {
		return nil, &TypeError{Want: "uint64", Got: v}
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf, nil
}

// Decode requires b to be exactly 8 bytes.
func (Uint64BigEndian) Decode(b []byte) (any, error) {
	if len(b) != 8 {
		return nil, &TypeError{Want: "8-byte big-endian uint64", Got: b}
	}
	return binary.BigEndian.Uint64(b), nil
}

// Name identifies this codec for BTreeInfo.
func (Uint64BigEndian) Name() string { return "uint64be" }

// TypeError reports a codec's Encode/Decode call receiving a value of the
// wrong Go type.
type TypeError struct {
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("codec: want %s, got %T", e.Want, e.Got)
}
