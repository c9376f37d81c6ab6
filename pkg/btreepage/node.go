package btreepage

import "github.com/dibyang/directory-mavibot/pkg/recordio"

// Node holds one revision of a B+Tree interior page: nbKeys separator
// keys and nbKeys+1 children. Children[i] holds every key strictly less
// than Keys[i] (and, for i>0, >= Keys[i-1]); Children[len(Keys)] is the
// rightmost child, holding everything >= the last key.
type Node struct {
	Revision   uint64
	Offset     int64
	LastOffset int64
	Keys       []KeyHolder
	Children   []*ChildHolder
}

func (n *Node) PageRevision() uint64  { return n.Revision }
func (n *Node) PageOffset() int64     { return n.Offset }
func (n *Node) PageLastOffset() int64 { return n.LastOffset }
func (n *Node) IsLeaf() bool          { return false }

// NewNode builds an in-memory node not yet assigned PageIO offsets.
// len(children) must equal len(keys)+1.
func NewNode(revision uint64, keys []KeyHolder, children []*ChildHolder) *Node {
	return &Node{Revision: revision, Offset: -1, LastOffset: -1, Keys: keys, Children: children}
}

// SetOffsets records where this node landed once its chain was flushed.
func (n *Node) SetOffsets(offset, lastOffset int64) {
	n.Offset = offset
	n.LastOffset = lastOffset
}

// EncodeNode serialises n per the Node page payload layout: the child
// count, stored negated, both distinguishes the page from a Leaf and
// gives the reader nbKeys = nbChildren-1 directly.
func EncodeNode(n *Node) *recordio.Writer {
	data := recordio.NewWriter()
	for i, k := range n.Keys {
		off, lastOff := n.Children[i].Offsets()
		data.WriteInt64(off)
		data.WriteInt64(lastOff)
		data.WriteBlob(k.Bytes())
	}
	rightOff, rightLastOff := n.Children[len(n.Children)-1].Offsets()
	data.WriteInt64(rightOff)
	data.WriteInt64(rightLastOff)

	w := recordio.NewWriter()
	w.WriteUint64(n.Revision)
	w.WriteInt32(int32(-len(n.Children)))
	w.WriteUint32(uint32(data.Len()))
	w.WriteRaw(data.Bytes())
	return w
}

// decodeNodeBody continues decoding after the caller has already read the
// shared revision field and the negated child count field (negative:
// storedCount == -nbChildren).
func decodeNodeBody(r *recordio.Reader, revision uint64, storedCount int32, offset, lastOffset int64) (*Node, error) {
	_ = r.ReadUint32() // dataSize: informational
	count := int(-storedCount)
	nbKeys := count - 1

	keys := make([]KeyHolder, nbKeys)
	children := make([]*ChildHolder, count)
	for i := 0; i < nbKeys; i++ {
		childOff := r.ReadInt64()
		childLastOff := r.ReadInt64()
		children[i] = NewUnresolvedChild(childOff, childLastOff)
		keys[i] = NewKeyHolder(r.ReadBlob())
	}
	rightOff := r.ReadInt64()
	rightLastOff := r.ReadInt64()
	children[nbKeys] = NewUnresolvedChild(rightOff, rightLastOff)

	return &Node{Revision: revision, Offset: offset, LastOffset: lastOffset, Keys: keys, Children: children}, nil
}
