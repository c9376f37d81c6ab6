package recordmgr

import "github.com/dibyang/directory-mavibot/internal/bigendian"

// The two internal bookkeeping trees (Btree-of-Btrees and
// CopiedPagesBtree) are ordinary managed btreepage/btreealgo trees, just
// with keys/values this package encodes and decodes itself rather than
// through a pluggable codec. Their key encodings are length-prefixed so
// they decode back unambiguously during Load's name-grouping scan; they
// are not meant to sort meaningfully by name or revision (nothing reads
// them by range, only by exact (name,revision) or (revision,name)
// lookup, or by a full scan that regroups via a map), so the length
// prefix ahead of the variable-length name is not a correctness issue.

// bobKey encodes the Btree-of-Btrees key (treeName, revision) ->
// headerOffset.
func bobKey(name string, revision uint64) []byte {
	buf := make([]byte, 4+len(name)+8)
	bigendian.PutUint32(buf[0:4], uint32(len(name)))
	copy(buf[4:], name)
	bigendian.PutUint64(buf[4+len(name):], revision)
	return buf
}

// decodeBobKey reverses bobKey.
func decodeBobKey(b []byte) (name string, revision uint64) {
	n := bigendian.Uint32(b[0:4])
	name = string(b[4 : 4+n])
	revision = bigendian.Uint64(b[4+n:])
	return name, revision
}

// bobValue/decodeBobValue encode the BTreeHeader offset a BoB entry
// points at.
func bobValue(headerOffset int64) []byte {
	buf := make([]byte, 8)
	bigendian.PutInt64(buf, headerOffset)
	return buf
}

func decodeBobValue(b []byte) int64 {
	return bigendian.Int64(b)
}

// cpbKey encodes the CopiedPagesBtree key (revision, treeName) ->
// list of shadowed page offsets.
func cpbKey(revision uint64, name string) []byte {
	buf := make([]byte, 8+4+len(name))
	bigendian.PutUint64(buf[0:8], revision)
	bigendian.PutUint32(buf[8:12], uint32(len(name)))
	copy(buf[12:], name)
	return buf
}

// decodeCpbKey reverses cpbKey.
func decodeCpbKey(b []byte) (revision uint64, name string) {
	revision = bigendian.Uint64(b[0:8])
	n := bigendian.Uint32(b[8:12])
	name = string(b[12 : 12+n])
	return revision, name
}

// cpbValue/decodeCpbValue encode the list of shadowed physical page
// offsets retired by one revision of one tree.
func cpbValue(offsets []int64) []byte {
	buf := make([]byte, 4+8*len(offsets))
	bigendian.PutUint32(buf[0:4], uint32(len(offsets)))
	for i, off := range offsets {
		bigendian.PutInt64(buf[4+8*i:], off)
	}
	return buf
}

func decodeCpbValue(b []byte) []int64 {
	n := int(bigendian.Uint32(b[0:4]))
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = bigendian.Int64(b[4+8*i:])
	}
	return out
}
