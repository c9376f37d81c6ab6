package btreepage

import "github.com/dibyang/directory-mavibot/pkg/recordio"

// DecodePage reads the shared (revision, count) prefix every page payload
// begins with and dispatches to the Leaf or Node body decoder: a negative
// count identifies a Node (it holds -nbChildren), non-negative identifies
// a Leaf (it holds +nbEntries).
func DecodePage(r *recordio.Reader, offset, lastOffset int64) (Page, error) {
	revision := r.ReadUint64()
	count := r.ReadInt32()
	if count < 0 {
		return decodeNodeBody(r, revision, count, offset, lastOffset)
	}
	return decodeLeafBody(r, revision, count, offset, lastOffset)
}

// Encode serialises p, dispatching on its concrete kind.
func Encode(p Page) *recordio.Writer {
	switch page := p.(type) {
	case *Leaf:
		return EncodeLeaf(page)
	case *Node:
		return EncodeNode(page)
	default:
		panic("btreepage: Encode called on an unknown Page implementation")
	}
}
