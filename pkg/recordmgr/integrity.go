package recordmgr

import (
	"fmt"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
	"github.com/dibyang/directory-mavibot/pkg/recordio"
)

// IntegrityError describes a single defect found by IntegrityCheck. Type
// groups related errors (header, freelist, btree); Tree and Page
// identify where the defect was found when applicable.
type IntegrityError struct {
	Type    string
	Tree    string
	Page    int64
	Message string
}

func (e IntegrityError) Error() string {
	switch {
	case e.Tree != "" && e.Page != 0:
		return fmt.Sprintf("[%s] tree %s, page %d: %s", e.Type, e.Tree, e.Page, e.Message)
	case e.Tree != "":
		return fmt.Sprintf("[%s] tree %s: %s", e.Type, e.Tree, e.Message)
	case e.Page != 0:
		return fmt.Sprintf("[%s] page %d: %s", e.Type, e.Page, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
}

// pageOwners tracks, for every physical page index in the file, which
// structure has claimed it. Re-claiming a page under the same owner
// (e.g. a tree's BTreeInfo record, visited once per revision recorded in
// the Btree-of-Btrees) is a harmless revisit; re-claiming it under a
// different owner means the same physical page is referenced by two
// structures at once, which is corruption. A page with no owner at the
// end of the walk is allocated but unreachable from anywhere: a leak.
type pageOwners struct {
	owner []string
}

func newPageOwners(totalPages int) *pageOwners {
	return &pageOwners{owner: make([]string, totalPages)}
}

// claim records owner's claim on idx. It returns the previously
// recorded owner and true if idx was already claimed by someone else.
func (p *pageOwners) claim(idx int, owner string) (conflict string, isConflict bool) {
	existing := p.owner[idx]
	if existing == "" {
		p.owner[idx] = owner
		return "", false
	}
	if existing == owner {
		return "", false
	}
	return existing, true
}

func (p *pageOwners) unclaimed() []int {
	var idxs []int
	for i, o := range p.owner {
		if o == "" {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// IntegrityCheck walks the entire file and cross-checks the free list
// against every reachable page: the free list itself, every managed
// tree's BTreeInfo/BTreeHeader records and current page tree, every
// historical BTreeHeader/BTreeInfo the Btree-of-Btrees still records
// (append-only: it never forgets a revision, even when keepRevisions is
// off), and every page offset the CopiedPagesBtree retains on a kept
// revision's behalf. Each physical page must be claimed by exactly one
// of these; a page claimed twice under different owners is corruption,
// and a page claimed by none is a leak (allocated, now unreachable,
// never freed). It also decodes every BTreeHeader the Btree-of-Btrees
// records (reporting one that cannot be read), reads the BTreeInfo
// chain each one names, and checks that the global header's pageSize is
// a power of two.
//
// IntegrityCheck takes no lock: it is meant to run against a quiescent
// file (no open writer transaction); a concurrent writer would make its
// results meaningless rather than wrong.
func (rm *RecordManager) IntegrityCheck() []IntegrityError {
	var errs []IntegrityError

	pageSize := rm.store.PageSize()
	fileSize := rm.store.FileSize()
	totalPages := int(fileSize / pageSize)

	if rm.header.PageSize == 0 || rm.header.PageSize&(rm.header.PageSize-1) != 0 {
		errs = append(errs, IntegrityError{Type: "header", Message: fmt.Sprintf("pageSize %d is not a power of two", rm.header.PageSize)})
	}

	owners := newPageOwners(totalPages)
	owners.owner[0] = "header" // offset 0 is reserved, never free-listed or tree-owned

	errs = append(errs, rm.walkFreeList(owners, pageSize, totalPages)...)

	for name, mt := range rm.allManagedTrees() {
		errs = append(errs, rm.markTreePages(owners, name, mt, pageSize, fileSize)...)
	}

	// BoB's leaves map every committed (treeName, revision) to a
	// BTreeHeader offset, not just the current one, and it never prunes
	// an entry: that's what makes GetAtRevision work. So a superseded
	// header/info record is still genuinely allocated even though the
	// plain per-tree walk above only follows each tree's *current*
	// headerOffset. This does not walk the page tree a historical header
	// points at, only the header/info record itself: whether that page
	// tree is still around depends on keepRevisions, covered below.
	errs = append(errs, rm.markHistoricalHeaders(owners, pageSize, fileSize)...)

	// CopiedPagesBtree's leaves record exactly the physical page offsets
	// a revision shadowed out of a live root but kept (keepRevisions),
	// so GetAtRevision can still serve them.
	errs = append(errs, rm.markCopiedPages(owners, pageSize, totalPages)...)

	if unclaimed := owners.unclaimed(); len(unclaimed) > 0 {
		errs = append(errs, IntegrityError{
			Type:    "freelist",
			Message: fmt.Sprintf("%d page(s) neither free nor reachable from any tree (e.g. offset %d)", len(unclaimed), int64(unclaimed[0])*pageSize),
		})
	}

	return errs
}

// QuickCheck checks each managed tree's in-memory BTreeInfo, BTreeHeader
// and root page offsets against the file's current size, and that
// pageSize is a power of two. It reads nothing from the file: no record
// is re-parsed, and neither the free list nor any page tree is walked.
// It catches a truncated file cheaply; IntegrityCheck is the full walk.
func (rm *RecordManager) QuickCheck() []IntegrityError {
	var errs []IntegrityError
	fileSize := rm.store.FileSize()

	if rm.header.PageSize == 0 || rm.header.PageSize&(rm.header.PageSize-1) != 0 {
		errs = append(errs, IntegrityError{Type: "header", Message: fmt.Sprintf("pageSize %d is not a power of two", rm.header.PageSize)})
	}

	for name, mt := range rm.allManagedTrees() {
		if !withinFile(mt.infoOffset, fileSize) {
			errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: mt.infoOffset, Message: "BTreeInfo offset outside file"})
		}
		if !withinFile(mt.headerOffset, fileSize) {
			errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: mt.headerOffset, Message: "BTreeHeader offset outside file"})
		}
		if !withinFile(mt.root.PageOffset(), fileSize) {
			errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: mt.root.PageOffset(), Message: "root page offset outside file"})
		}
	}
	return errs
}

func withinFile(offset, fileSize int64) bool {
	return offset >= 0 && offset < fileSize
}

// allManagedTrees returns every tree IntegrityCheck/QuickCheck must
// visit: the two internal bookkeeping trees plus every user-registered
// one.
func (rm *RecordManager) allManagedTrees() map[string]managedTree {
	all := make(map[string]managedTree, len(rm.trees)+2)
	all[bobName] = rm.bob
	all[cpbName] = rm.cpb
	for name, mt := range rm.trees {
		all[name] = *mt
	}
	return all
}

func (rm *RecordManager) walkFreeList(owners *pageOwners, pageSize int64, totalPages int) []IntegrityError {
	var errs []IntegrityError
	seen := make(map[int64]bool)

	offset := rm.header.FirstFreePage
	for offset != recordio.EndOfChain {
		if seen[offset] {
			errs = append(errs, IntegrityError{Type: "freelist", Page: offset, Message: "cycle detected"})
			break
		}
		seen[offset] = true

		idx := int(offset / pageSize)
		if offset < 0 || idx >= totalPages || offset%pageSize != 0 {
			errs = append(errs, IntegrityError{Type: "freelist", Page: offset, Message: "offset outside file or misaligned"})
			break
		}
		if conflict, bad := owners.claim(idx, "freelist"); bad {
			errs = append(errs, IntegrityError{Type: "freelist", Page: offset, Message: "page also claimed by " + conflict})
		}

		page, err := rm.store.Fetch(offset)
		if err != nil {
			errs = append(errs, IntegrityError{Type: "freelist", Page: offset, Message: err.Error()})
			break
		}
		offset = page.Next()
	}
	return errs
}

// markChain claims every physical page of the logical record anchored
// at offset under owner, reporting a conflict for any page some other
// owner already claimed.
func (rm *RecordManager) markChain(owners *pageOwners, offset int64, pageSize, fileSize int64, owner, what, treeName string) []IntegrityError {
	var errs []IntegrityError
	if !withinFile(offset, fileSize) {
		errs = append(errs, IntegrityError{Type: "btree", Tree: treeName, Page: offset, Message: what + " offset outside file"})
		return errs
	}
	pages, err := rm.store.ReadChain(offset)
	if err != nil {
		errs = append(errs, IntegrityError{Type: "btree", Tree: treeName, Page: offset, Message: what + ": " + err.Error()})
		return errs
	}
	for _, p := range pages {
		idx := int(p.Offset / pageSize)
		if conflict, bad := owners.claim(idx, owner); bad {
			errs = append(errs, IntegrityError{Type: "btree", Tree: treeName, Page: p.Offset, Message: what + " page also claimed by " + conflict})
		}
	}
	return errs
}

// markTreePages marks every physical page belonging to one managed
// tree's current BTreeInfo record, current BTreeHeader record and page
// tree (Node/Leaf chains, recursively through every resolved or
// lazily-resolved child).
func (rm *RecordManager) markTreePages(owners *pageOwners, name string, mt managedTree, pageSize int64, fileSize int64) []IntegrityError {
	var errs []IntegrityError
	metaOwner := "meta:" + name
	pageOwner := "pages:" + name

	errs = append(errs, rm.markChain(owners, mt.infoOffset, pageSize, fileSize, metaOwner, "BTreeInfo", name)...)
	errs = append(errs, rm.markChain(owners, mt.headerOffset, pageSize, fileSize, metaOwner, "BTreeHeader", name)...)

	var walk func(p btreepage.Page)
	walk = func(p btreepage.Page) {
		if p == nil || p.PageOffset() < 0 {
			return // in-memory page never flushed, e.g. an empty freshly-created tree's root
		}
		errs = append(errs, rm.markChain(owners, p.PageOffset(), pageSize, fileSize, pageOwner, "page", name)...)

		node, ok := p.(*btreepage.Node)
		if !ok {
			return
		}
		for _, ch := range node.Children {
			child, err := ch.Resolve(rm)
			if err != nil {
				errs = append(errs, IntegrityError{Type: "btree", Tree: name, Message: "resolving child: " + err.Error()})
				continue
			}
			walk(child)
		}
	}
	walk(mt.root)

	return errs
}

// markHistoricalHeaders claims the BTreeHeader/BTreeInfo record of every
// (treeName, revision) the Btree-of-Btrees still records, not just each
// tree's current one. It never descends into the page tree a historical
// header points at: that page tree is only still around when
// keepRevisions kept it, which markCopiedPages accounts for separately.
func (rm *RecordManager) markHistoricalHeaders(owners *pageOwners, pageSize, fileSize int64) []IntegrityError {
	var errs []IntegrityError
	err := rm.walkLeaves(rm.bob.root, func(key, value []byte) error {
		name, _ := decodeBobKey(key)
		headerOffset := decodeBobValue(value)
		metaOwner := "meta:" + name

		errs = append(errs, rm.markChain(owners, headerOffset, pageSize, fileSize, metaOwner, "BTreeHeader", name)...)

		bh, rErr := rm.readBTreeHeader(headerOffset)
		if rErr != nil {
			errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: headerOffset, Message: "reading historical BTreeHeader: " + rErr.Error()})
			return nil
		}
		errs = append(errs, rm.markChain(owners, bh.BTreeInfoOffset, pageSize, fileSize, metaOwner, "BTreeInfo", name)...)
		return nil
	})
	if err != nil {
		errs = append(errs, IntegrityError{Type: "btree", Tree: bobName, Message: "walking Btree-of-Btrees: " + err.Error()})
	}
	return errs
}

// markCopiedPages claims every individual physical page offset the
// CopiedPagesBtree recorded for a kept revision. These are raw page
// offsets already, collected by shadow() walking the superseded chain at
// the moment it was shadowed, not logical-record starts: a continuation
// page is not a valid chain head, so each is claimed directly rather
// than through markChain/ReadChain.
func (rm *RecordManager) markCopiedPages(owners *pageOwners, pageSize int64, totalPages int) []IntegrityError {
	var errs []IntegrityError
	err := rm.walkLeaves(rm.cpb.root, func(key, value []byte) error {
		_, name := decodeCpbKey(key)
		offsets := decodeCpbValue(value)
		owner := "pages:" + name

		for _, offset := range offsets {
			idx := int(offset / pageSize)
			if offset < 0 || idx >= totalPages || offset%pageSize != 0 {
				errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: offset, Message: "CopiedPagesBtree entry outside file or misaligned"})
				continue
			}
			if conflict, bad := owners.claim(idx, owner); bad {
				errs = append(errs, IntegrityError{Type: "btree", Tree: name, Page: offset, Message: "kept page also claimed by " + conflict})
			}
		}
		return nil
	})
	if err != nil {
		errs = append(errs, IntegrityError{Type: "btree", Tree: cpbName, Message: "walking CopiedPagesBtree: " + err.Error()})
	}
	return errs
}
