// Package btreealgo implements the copy-on-write B+Tree algorithms:
// search, insert (with split propagation) and delete (with borrow and
// merge rebalancing), operating on the page model in btreepage. Every
// mutating operation builds new pages carrying the transaction's
// revision; it never mutates a page obtained from a previous revision.
package btreealgo

import (
	"errors"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
)

// ErrUnknownPageKind is returned when a Page is neither *btreepage.Leaf
// nor *btreepage.Node.
var ErrUnknownPageKind = errors.New("btreealgo: page is neither a leaf nor a node")

// ErrUnexpectedRootResult indicates an internal algorithm invariant
// violation: a root-level Delete produced a rebalance result (Borrowed*
// or Merged), which should be impossible since the root call passes no
// siblings.
var ErrUnexpectedRootResult = errors.New("btreealgo: unexpected rebalance result at root")

// Transaction is what the algorithms need from the owning RecordManager:
// the ability to resolve an unresolved child reference, to turn a
// freshly built in-memory page into a flushed PageIO chain, and to
// record a page's old offsets as shadowed once a CoW copy supersedes it.
type Transaction interface {
	btreepage.Resolver

	// Flush serialises p to a freshly allocated PageIO chain, writes it,
	// and calls p.SetOffsets with the resulting offsets.
	Flush(p btreepage.Page) error

	// Shadow records a page's offsets as no longer reachable from the
	// tree being built in this transaction.
	Shadow(offset, lastOffset int64)
}

// minOccupancy returns ceil(m/2), the minimum children per Node and
// minimum entries per Leaf (the root is exempt from this bound).
func minOccupancy(m int) int {
	return (m + 1) / 2
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func deleteAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}
