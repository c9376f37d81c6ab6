// Package bigendian provides the fixed-width big-endian integer and
// length-prefixed blob encodings used throughout the on-disk format.
package bigendian

import "encoding/binary"

// PutUint32 writes v as a 4-byte big-endian integer at buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}

// Uint32 reads a 4-byte big-endian integer from buf[0:4].
func Uint32(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}

// PutUint64 writes v as an 8-byte big-endian integer at buf[0:8].
func PutUint64(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

// Uint64 reads an 8-byte big-endian integer from buf[0:8].
func Uint64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}

// PutInt64 writes a signed 8-byte big-endian integer, used for offsets
// where -1 is a valid sentinel value.
func PutInt64(buf []byte, v int64) {
	binary.BigEndian.PutUint64(buf, uint64(v))
}

// Int64 reads a signed 8-byte big-endian integer.
func Int64(buf []byte) int64 {
	return int64(binary.BigEndian.Uint64(buf))
}

// PutInt32 writes a signed 4-byte big-endian integer, used for the
// negated child count that distinguishes a Node from a Leaf and for the
// signed value count in a Leaf entry's values-block.
func PutInt32(buf []byte, v int32) {
	binary.BigEndian.PutUint32(buf, uint32(v))
}

// Int32 reads a signed 4-byte big-endian integer.
func Int32(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

// PutBlob writes a length-prefixed byte blob: [len:4][bytes]. A nil or
// empty blob is written as a zero length, the "absent" marker.
func PutBlob(buf []byte, blob []byte) int {
	PutUint32(buf, uint32(len(blob)))
	copy(buf[4:], blob)
	return 4 + len(blob)
}

// BlobLen returns the number of bytes PutBlob needs to encode blob.
func BlobLen(blob []byte) int {
	return 4 + len(blob)
}

// GetBlob reads a length-prefixed byte blob written by PutBlob and returns
// it along with the number of bytes consumed. A zero length prefix yields
// a nil slice, matching the "absent" convention.
func GetBlob(buf []byte) ([]byte, int) {
	n := int(Uint32(buf))
	if n == 0 {
		return nil, 4
	}
	blob := make([]byte, n)
	copy(blob, buf[4:4+n])
	return blob, 4 + n
}
