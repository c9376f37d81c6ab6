package recordmgr

import (
	"github.com/dibyang/directory-mavibot/pkg/btreealgo"
	"github.com/dibyang/directory-mavibot/pkg/btreepage"
	"github.com/dibyang/directory-mavibot/pkg/cursor"
)

// BTreeHandle is the caller-facing view of one managed tree: a thin
// name plus a back-reference to the RecordManager that actually owns
// the page state, so every operation always sees the tree's latest
// committed revision.
type BTreeHandle struct {
	rm   *RecordManager
	name string
}

// Name returns the tree's registered name.
func (h *BTreeHandle) Name() string { return h.name }

// Revision returns the tree's most recently committed revision number.
func (h *BTreeHandle) Revision() (uint64, error) {
	tree, ok := h.rm.trees[h.name]
	if !ok {
		return 0, ErrNotManaged
	}
	return tree.header.Revision, nil
}

// Insert adds key with value. If the tree disallows duplicates and key
// is already present, the tree is left unchanged (the existing value is
// not replaced) and the existing value is returned with hadOld=true. If
// the tree allows duplicates, the new value is added alongside the ones
// key already holds and the prior value holder (if any) is returned.
func (h *BTreeHandle) Insert(key, value []byte) (old btreepage.ValueHolder, hadOld bool, err error) {
	rm := h.rm
	rm.Begin()

	tree, ok := rm.trees[h.name]
	if !ok {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, ErrNotManaged
	}

	adapter := &txAdapter{rm: rm, treeName: h.name}
	newRoot, oldValue, hadOldValue, err := btreealgo.InsertRoot(adapter, tree.info.Fanout, tree.header.Revision+1, tree.root, key, value, tree.info.AllowDuplicates)
	if err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}

	if newRoot == tree.root {
		if err := rm.Commit(); err != nil {
			return btreepage.ValueHolder{}, false, err
		}
		return oldValue, hadOldValue, nil
	}

	count := tree.header.Count
	if !hadOldValue {
		count++
	}
	newHeader := BTreeHeader{Revision: tree.header.Revision + 1, Count: count, RootPageOffset: newRoot.PageOffset(), BTreeInfoOffset: tree.infoOffset}
	headerOffset, err := rm.writeRecord(EncodeBTreeHeader(newHeader))
	if err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}

	rm.trees[h.name] = &managedTree{info: tree.info, infoOffset: tree.infoOffset, header: newHeader, headerOffset: headerOffset, root: newRoot}

	if err := rm.insertIntoBob(h.name, newHeader.Revision, headerOffset); err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}

	if err := rm.Commit(); err != nil {
		return btreepage.ValueHolder{}, false, err
	}
	return oldValue, hadOldValue, nil
}

// Delete removes key, returning its value and found=true if it was
// present. If it wasn't, the tree is left unchanged and found is false.
func (h *BTreeHandle) Delete(key []byte) (value btreepage.ValueHolder, found bool, err error) {
	rm := h.rm
	rm.Begin()

	tree, ok := rm.trees[h.name]
	if !ok {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, ErrNotManaged
	}

	adapter := &txAdapter{rm: rm, treeName: h.name}
	newRoot, removedValue, foundKey, err := btreealgo.DeleteRoot(adapter, tree.info.Fanout, tree.header.Revision+1, tree.root, key)
	if err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}
	if !foundKey {
		if err := rm.Commit(); err != nil {
			return btreepage.ValueHolder{}, false, err
		}
		return btreepage.ValueHolder{}, false, nil
	}

	newHeader := BTreeHeader{Revision: tree.header.Revision + 1, Count: tree.header.Count - 1, RootPageOffset: newRoot.PageOffset(), BTreeInfoOffset: tree.infoOffset}
	headerOffset, err := rm.writeRecord(EncodeBTreeHeader(newHeader))
	if err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}

	rm.trees[h.name] = &managedTree{info: tree.info, infoOffset: tree.infoOffset, header: newHeader, headerOffset: headerOffset, root: newRoot}

	if err := rm.insertIntoBob(h.name, newHeader.Revision, headerOffset); err != nil {
		rm.Rollback()
		return btreepage.ValueHolder{}, false, err
	}

	if err := rm.Commit(); err != nil {
		return btreepage.ValueHolder{}, false, err
	}
	return removedValue, true, nil
}

// Get looks up key against the tree's current revision; GetAtRevision
// looks up a past one.
func (h *BTreeHandle) Get(key []byte) (btreepage.ValueHolder, bool, error) {
	tree, ok := h.rm.trees[h.name]
	if !ok {
		return btreepage.ValueHolder{}, false, ErrNotManaged
	}
	return btreealgo.Search(h.rm, tree.root, key)
}

// GetAtRevision looks up key against the tree's state as of a specific
// revision: the current root for the current revision, otherwise the
// root named by the BTreeHeader the Btree-of-Btrees recorded for that
// revision (ErrRevisionNotFound if none). It does not check whether that
// revision's pages were retained; they are only intact if
// SetKeepRevisions(true) was in effect when the revision was superseded.
func (h *BTreeHandle) GetAtRevision(key []byte, revision uint64) (btreepage.ValueHolder, bool, error) {
	tree, ok := h.rm.trees[h.name]
	if !ok {
		return btreepage.ValueHolder{}, false, ErrNotManaged
	}
	if revision == tree.header.Revision {
		return btreealgo.Search(h.rm, tree.root, key)
	}
	bh, err := h.rm.findTreeHeaderAtRevision(h.name, revision)
	if err != nil {
		return btreepage.ValueHolder{}, false, err
	}
	root, err := h.rm.ResolvePage(bh.RootPageOffset, 0)
	if err != nil {
		return btreepage.ValueHolder{}, false, err
	}
	return btreealgo.Search(h.rm, root, key)
}

// Root returns the page tree is rooted at for iteration (via pkg/cursor)
// along with the Resolver to walk it, as of either the tree's current
// revision or an explicit past one.
func (h *BTreeHandle) Root(revision ...uint64) (btreepage.Page, btreepage.Resolver, error) {
	tree, ok := h.rm.trees[h.name]
	if !ok {
		return nil, nil, ErrNotManaged
	}
	if len(revision) == 0 || revision[0] == tree.header.Revision {
		return tree.root, h.rm, nil
	}
	bh, err := h.rm.findTreeHeaderAtRevision(h.name, revision[0])
	if err != nil {
		return nil, nil, err
	}
	root, err := h.rm.ResolvePage(bh.RootPageOffset, 0)
	if err != nil {
		return nil, nil, err
	}
	return root, h.rm, nil
}

// Browse returns a Cursor over the tree's entries in key order, as of
// either its current revision or an explicit past one.
func (h *BTreeHandle) Browse(revision ...uint64) (*cursor.Cursor, error) {
	root, resolver, err := h.Root(revision...)
	if err != nil {
		return nil, err
	}
	return cursor.New(root, resolver), nil
}

// findTreeHeaderAtRevision looks up the BTreeHeader the Btree-of-Btrees
// recorded for (name, revision). The only tracked revisions are those a
// commit explicitly wrote, so a gap in the sequence (e.g. dropped by a
// rolled-back transaction) simply isn't found.
func (rm *RecordManager) findTreeHeaderAtRevision(name string, revision uint64) (BTreeHeader, error) {
	v, found, err := btreealgo.Search(rm, rm.bob.root, bobKey(name, revision))
	if err != nil {
		return BTreeHeader{}, err
	}
	if !found {
		return BTreeHeader{}, ErrRevisionNotFound
	}
	return rm.readBTreeHeader(decodeBobValue(v.Single()))
}
