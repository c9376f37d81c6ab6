// Package btreepage implements the B+Tree page model: immutable,
// revision-stamped Leaf and Node pages together with the lazy key, child
// and value holders layered over them. Pages never mutate once built;
// copy-on-write algorithms build new Page values and let old ones become
// unreachable.
package btreepage

import "errors"

// ErrWrongKind is returned when a page fetched from disk carries the
// opposite kind (Leaf vs Node) from what the caller expected.
var ErrWrongKind = errors.New("btreepage: page kind mismatch")

// ErrUnresolvedChild is returned when code asks for a child's in-memory
// page without going through Resolve first and no Resolver was supplied.
var ErrUnresolvedChild = errors.New("btreepage: child reference is unresolved")

// Page is satisfied by both *Leaf and *Node. It exposes only what both
// kinds share: their revision stamp and the PageIO offsets they were
// materialised from (or -1 for a page built in memory and not yet
// flushed).
type Page interface {
	PageRevision() uint64
	PageOffset() int64
	PageLastOffset() int64
	IsLeaf() bool

	// SetOffsets records where this page landed once its PageIO chain
	// was flushed, so parents linking to it can serialise a real offset
	// instead of the in-memory sentinel -1.
	SetOffsets(offset, lastOffset int64)
}

// Resolver fetches and deserialises the page anchored at (offset,
// lastOffset), resolving an unresolved child reference to its in-memory
// form. RecordManager's tree wrapper supplies the concrete
// implementation; btreepage itself never touches PageIO directly.
type Resolver interface {
	ResolvePage(offset, lastOffset int64) (Page, error)
}
