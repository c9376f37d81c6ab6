package btreepage

import "bytes"

// KeyHolder wraps the raw, codec-encoded bytes of one key. Keys are
// compared byte-wise (codecs are expected to produce an encoding whose
// natural byte order matches the domain order, e.g. big-endian integers),
// so a holder never needs to decode to compare or to route a search.
// Decoding to a caller-facing value only happens on demand, via Decode,
// so a traversal that never yields a given key never pays for it.
type KeyHolder struct {
	raw []byte
}

// NewKeyHolder wraps raw key bytes already in their on-disk encoding.
func NewKeyHolder(raw []byte) KeyHolder {
	return KeyHolder{raw: raw}
}

// Bytes returns the raw encoded key.
func (k KeyHolder) Bytes() []byte {
	return k.raw
}

// Compare orders two key holders by their encoded bytes.
func (k KeyHolder) Compare(other KeyHolder) int {
	return bytes.Compare(k.raw, other.raw)
}

// CompareBytes orders a key holder against an already-encoded key,
// avoiding an intermediate holder allocation on the hot search path.
func (k KeyHolder) CompareBytes(other []byte) int {
	return bytes.Compare(k.raw, other)
}

// Decode runs the key's bytes through a codec to recover the caller-facing
// value. Callers that only need ordering (search, split point selection)
// should never call this.
func (k KeyHolder) Decode(c Decoder) (any, error) {
	return c.Decode(k.raw)
}

// Decoder is the minimal surface KeyHolder/ValueHolder need from a codec:
// turning stored bytes back into a domain value. codec.Codec satisfies
// this directly.
type Decoder interface {
	Decode(b []byte) (any, error)
}
