package recordmgr

import "github.com/dibyang/directory-mavibot/pkg/recordio"

// BTreeInfo is written once per managed tree and never changes for the
// life of the tree: its own fan-out, name and codec identifiers.
type BTreeInfo struct {
	Fanout          int
	Name            string
	KeyCodecName    string
	ValueCodecName  string
	AllowDuplicates bool
}

// EncodeBTreeInfo serialises info as a logical record.
func EncodeBTreeInfo(info BTreeInfo) *recordio.Writer {
	w := recordio.NewWriter()
	w.WriteUint32(uint32(info.Fanout))
	w.WriteBlob([]byte(info.Name))
	w.WriteBlob([]byte(info.KeyCodecName))
	w.WriteBlob([]byte(info.ValueCodecName))
	if info.AllowDuplicates {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
	return w
}

// DecodeBTreeInfo reads back what EncodeBTreeInfo wrote.
func DecodeBTreeInfo(r *recordio.Reader) BTreeInfo {
	fanout := int(r.ReadUint32())
	name := string(r.ReadBlob())
	keyCodec := string(r.ReadBlob())
	valueCodec := string(r.ReadBlob())
	allowDup := r.ReadByte() != 0
	return BTreeInfo{
		Fanout:          fanout,
		Name:            name,
		KeyCodecName:    keyCodec,
		ValueCodecName:  valueCodec,
		AllowDuplicates: allowDup,
	}
}

// BTreeHeader is written once per committed revision of a managed tree.
// Older BTreeHeader records remain on disk (immutable, per-revision)
// until their CopiedPagesBtree entry is reclaimed; only the
// Btree-of-Btrees' pointer to the "current" one changes.
type BTreeHeader struct {
	Revision        uint64
	Count           uint64
	RootPageOffset  int64
	BTreeInfoOffset int64
}

// EncodeBTreeHeader serialises h as a logical record.
func EncodeBTreeHeader(h BTreeHeader) *recordio.Writer {
	w := recordio.NewWriter()
	w.WriteUint64(h.Revision)
	w.WriteUint64(h.Count)
	w.WriteInt64(h.RootPageOffset)
	w.WriteInt64(h.BTreeInfoOffset)
	return w
}

// DecodeBTreeHeader reads back what EncodeBTreeHeader wrote.
func DecodeBTreeHeader(r *recordio.Reader) BTreeHeader {
	return BTreeHeader{
		Revision:        r.ReadUint64(),
		Count:           r.ReadUint64(),
		RootPageOffset:  r.ReadInt64(),
		BTreeInfoOffset: r.ReadInt64(),
	}
}
