package recordio

import "github.com/dibyang/directory-mavibot/internal/bigendian"

// Writer accumulates the bytes of one logical record and, on Finish,
// splits them across a freshly allocated chain of pages per the virtual
// offset mapping in spec §4.2: the first page carries pageSize-12 bytes,
// every following page carries pageSize-8.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty record writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	bigendian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteUint64 appends a big-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	bigendian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteInt32 appends a signed big-endian int32, used for the page count
// field (negated child count for a Node, positive entry count for a
// Leaf) and for the signed value count in a Leaf entry's values-block.
func (w *Writer) WriteInt32(v int32) {
	var tmp [4]byte
	bigendian.PutInt32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteInt64 appends a signed big-endian int64 (used for offsets, where
// -1 is a valid sentinel).
func (w *Writer) WriteInt64(v int64) {
	var tmp [8]byte
	bigendian.PutInt64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteRaw appends bytes verbatim, with no length prefix.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteBlob appends a length-prefixed byte blob: [len:4][bytes]. A nil or
// empty blob encodes as "absent" (len == 0).
func (w *Writer) WriteBlob(b []byte) {
	tmp := make([]byte, bigendian.BlobLen(b))
	bigendian.PutBlob(tmp, b)
	w.buf = append(w.buf, tmp...)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated buffer. Callers that embed one Writer's
// output inside another (e.g. a record whose layout leads with the
// encoded length of an inner section) use this to splice the two
// together before calling Finish.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Finish allocates a chain of pages from store sufficient to hold every
// byte written, lays out the header fields and payload windows on each
// page, and returns the chain (first page first) along with the offset
// of the first page. The caller is responsible for flushing the returned
// pages and recording their offsets for the current transaction.
func (w *Writer) Finish(store *Store) ([]*Page, int64, error) {
	pageSize := int(store.PageSize())
	first := firstPayloadLen(pageSize)
	cont := contPayloadLen(pageSize)

	need := 1
	if len(w.buf) > first {
		need += 1 + (len(w.buf)-first-1)/cont
	}

	pages := make([]*Page, need)
	for i := 0; i < need; i++ {
		p, err := store.Allocate()
		if err != nil {
			return nil, 0, err
		}
		pages[i] = p
	}
	for i := 0; i < need; i++ {
		if i+1 < need {
			pages[i].SetNext(pages[i+1].Offset)
		} else {
			pages[i].SetNext(EndOfChain)
		}
	}
	pages[0].SetLogicalSize(uint32(len(w.buf)))

	pos := 0
	if n := copy(pages[0].FirstPayload(), w.buf); n > 0 {
		pos += n
	}
	for i := 1; i < need; i++ {
		n := copy(pages[i].ContPayload(), w.buf[pos:])
		pos += n
	}

	return pages, pages[0].Offset, nil
}

// Reader exposes sequential big-endian decoding over a logical record
// that has been flattened from its page chain into one contiguous slice.
type Reader struct {
	buf []byte
	pos int
}

// NewReaderFromBytes wraps an already-flattened logical-record buffer
// directly, without walking a page chain. Useful when a caller already
// holds the bytes of a record in hand (tests, or an in-memory record
// produced by a Writer that hasn't gone through Finish/ReadChain).
func NewReaderFromBytes(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReader flattens a chain of pages (as returned by Store.ReadChain)
// into a Reader positioned at the start of the logical record.
func NewReader(pages []*Page) *Reader {
	if len(pages) == 0 {
		return &Reader{}
	}
	total := int(pages[0].LogicalSize())
	buf := make([]byte, 0, total)
	buf = append(buf, pages[0].FirstPayload()...)
	for _, p := range pages[1:] {
		buf = append(buf, p.ContPayload()...)
	}
	if len(buf) > total {
		buf = buf[:total]
	}
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// ReadUint32 reads a big-endian uint32 and advances the cursor.
func (r *Reader) ReadUint32() uint32 {
	v := bigendian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// ReadUint64 reads a big-endian uint64 and advances the cursor.
func (r *Reader) ReadUint64() uint64 {
	v := bigendian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// ReadInt64 reads a signed big-endian int64 and advances the cursor.
func (r *Reader) ReadInt64() int64 {
	v := bigendian.Int64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// ReadInt32 reads a signed big-endian int32 and advances the cursor.
func (r *Reader) ReadInt32() int32 {
	v := bigendian.Int32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// ReadByte reads a single byte and advances the cursor.
func (r *Reader) ReadByte() byte {
	b := r.buf[r.pos]
	r.pos++
	return b
}

// ReadRaw reads n raw bytes and advances the cursor.
func (r *Reader) ReadRaw(n int) []byte {
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadBlob reads a length-prefixed byte blob and advances the cursor.
func (r *Reader) ReadBlob() []byte {
	b, n := bigendian.GetBlob(r.buf[r.pos:])
	r.pos += n
	return b
}
