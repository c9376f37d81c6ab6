package btreepage

import (
	"fmt"

	"github.com/dibyang/directory-mavibot/pkg/recordio"
)

// Leaf holds the entries for one revision of a B+Tree leaf page: keys in
// strictly ascending order, each paired with an inline value, an inline
// array of duplicate values, or a reference to a duplicate-values
// subtree.
type Leaf struct {
	Revision   uint64
	Offset     int64
	LastOffset int64
	Entries    []LeafEntry
}

// LeafEntry is one (key, values-block) slot.
type LeafEntry struct {
	Key   KeyHolder
	Value ValueHolder
}

// PageRevision, PageOffset, PageLastOffset and IsLeaf implement Page.
func (l *Leaf) PageRevision() uint64  { return l.Revision }
func (l *Leaf) PageOffset() int64     { return l.Offset }
func (l *Leaf) PageLastOffset() int64 { return l.LastOffset }
func (l *Leaf) IsLeaf() bool          { return true }

// NewLeaf builds an in-memory leaf not yet assigned PageIO offsets (both
// -1 until the serializer flushes it and calls SetOffsets).
func NewLeaf(revision uint64, entries []LeafEntry) *Leaf {
	return &Leaf{Revision: revision, Offset: -1, LastOffset: -1, Entries: entries}
}

// SetOffsets records where this leaf landed once its chain was flushed.
func (l *Leaf) SetOffsets(offset, lastOffset int64) {
	l.Offset = offset
	l.LastOffset = lastOffset
}

// EncodeLeaf serialises l per the Leaf page payload layout: a positive
// entry count identifies the page as a Leaf (a Node's count field is
// negative), followed by a dataSize and the entry data itself.
func EncodeLeaf(l *Leaf) *recordio.Writer {
	data := recordio.NewWriter()
	for _, e := range l.Entries {
		encodeValueBlock(data, e.Value)
		data.WriteBlob(e.Key.Bytes())
	}

	w := recordio.NewWriter()
	w.WriteUint64(l.Revision)
	w.WriteInt32(int32(len(l.Entries)))
	w.WriteUint32(uint32(data.Len()))
	w.WriteRaw(data.Bytes())
	return w
}

// decodeLeafBody continues decoding after the caller has already read the
// shared revision field and the (already known to be non-negative) entry
// count.
func decodeLeafBody(r *recordio.Reader, revision uint64, nbEntries int32, offset, lastOffset int64) (*Leaf, error) {
	_ = r.ReadUint32() // dataSize: informational, the chain's logicalSize already bounds the record
	entries := make([]LeafEntry, nbEntries)
	for i := range entries {
		val := decodeValueBlock(r)
		key := NewKeyHolder(r.ReadBlob())
		entries[i] = LeafEntry{Key: key, Value: val}
	}
	return &Leaf{Revision: revision, Offset: offset, LastOffset: lastOffset, Entries: entries}, nil
}

func encodeValueBlock(w *recordio.Writer, v ValueHolder) {
	switch v.Kind() {
	case ValueInline:
		w.WriteInt32(1)
		w.WriteBlob(v.Single())
	case ValueInlineArray:
		values := v.InlineValues()
		w.WriteInt32(int32(len(values)))
		for _, b := range values {
			w.WriteBlob(b)
		}
	case ValueSubtreeRef:
		w.WriteInt32(int32(-(v.SubtreeCount() + 1)))
		w.WriteInt64(v.SubtreeOffset())
	default:
		panic(fmt.Sprintf("btreepage: unknown value kind %d", v.Kind()))
	}
}

func decodeValueBlock(r *recordio.Reader) ValueHolder {
	n := r.ReadInt32()
	if n >= 0 {
		values := make([][]byte, n)
		for i := range values {
			values[i] = r.ReadBlob()
		}
		if n == 1 {
			return NewInlineValue(values[0])
		}
		return NewInlineArrayValue(values)
	}
	count := int64(-n - 1)
	offset := r.ReadInt64()
	return NewSubtreeRefValue(offset, count)
}
