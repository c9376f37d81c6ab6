// Package recordmgr ties the PageIO substrate (recordio), the page
// model and CoW algorithms (btreepage, btreealgo) together into the
// single-writer, multi-reader engine described by the file format: one
// global header, two internal bookkeeping trees (Btree-of-Btrees and
// CopiedPagesBtree), and any number of user-managed named B+Trees.
package recordmgr

import (
	"os"

	"github.com/dibyang/directory-mavibot/pkg/btreealgo"
	"github.com/dibyang/directory-mavibot/pkg/btreepage"
	"github.com/dibyang/directory-mavibot/pkg/recordio"
)

const (
	bobName = "$btree_of_btrees$"
	cpbName = "$copied_pages$"

	// internalFanout is the fan-out of the two bookkeeping trees; it is
	// not user-configurable since nothing outside this package ever
	// names them.
	internalFanout = 16

	// DefaultPageSize is used by Open when the caller doesn't ask for a
	// specific physical page size.
	DefaultPageSize = 512
)

// managedTree is the in-memory state RecordManager keeps for one
// managed B+Tree (user tree or one of the two internal trees): its
// immutable BTreeInfo, its most recently committed BTreeHeader, and the
// in-memory root page that header points at.
type managedTree struct {
	info       BTreeInfo
	infoOffset int64

	header       BTreeHeader
	headerOffset int64

	root btreepage.Page
}

// treeShadow accumulates the physical page offsets one user tree
// shadowed during the current transaction, tagged with the revision
// those pages belonged to before the transaction touched them (the CPB
// key component), for registration in CopiedPagesBtree when
// keepRevisions is set.
type treeShadow struct {
	baseRevision uint64
	offsets      []int64
}

// txState is the bookkeeping for one open writer transaction: the pages
// it allocated (returned to the free list on rollback) and shadowed
// (appended to the free list, or registered in CPB, on commit), plus
// the BoB/CPB header offsets as they stood before the transaction began
// (restored into the global header's previous* fields for the
// crash-recovery window between the two header writes).
type txState struct {
	allocatedPages []int64
	freedPages     []int64
	shadowedByTree map[string]*treeShadow
	shadowErr      error

	bobOffsetBeforeTx int64
	cpbOffsetBeforeTx int64
}

// RecordManager owns the file, the global header, both internal trees,
// the set of user-managed trees, and the single-writer transaction
// state.
type RecordManager struct {
	file  *os.File
	store *recordio.Store

	header GlobalHeader
	bob    managedTree
	cpb    managedTree
	trees  map[string]*managedTree

	wlock writerLock
	tx    *txState

	keepRevisions bool
}

// Open opens path, creating and initialising a new file if it doesn't
// exist (or is empty), and loading an existing one otherwise. pageSize
// is only consulted for a new file; zero selects DefaultPageSize.
func Open(path string, pageSize int64) (*RecordManager, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < recordio.MinPageSize {
		return nil, recordio.ErrInvalidPageSize
	}

	st, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)
	if statErr != nil && !isNew {
		return nil, statErr
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	rm := &RecordManager{file: f, trees: map[string]*managedTree{}}

	if isNew || st.Size() == 0 {
		if err := rm.initNew(pageSize); err != nil {
			unlockFile(f)
			f.Close()
			return nil, err
		}
		return rm, nil
	}

	if err := rm.load(st.Size()); err != nil {
		unlockFile(f)
		f.Close()
		return nil, err
	}
	return rm, nil
}

// Close flushes OS buffers and releases the advisory file lock. It does
// not implicitly commit or roll back an open transaction; callers must
// do that first.
func (rm *RecordManager) Close() error {
	if err := rm.store.Sync(); err != nil {
		return err
	}
	if err := unlockFile(rm.file); err != nil {
		return err
	}
	return rm.file.Close()
}

// SetKeepRevisions controls whether a tree's shadowed pages are
// registered in CopiedPagesBtree (retrievable at their old revision via
// BTreeHandle.GetAtRevision) instead of returned to the free list
// immediately.
func (rm *RecordManager) SetKeepRevisions(keep bool) {
	rm.keepRevisions = keep
}

// initNew lays out a brand-new file: the zeroed header page, then empty
// BoB and CPB trees, then the header pointing at both.
func (rm *RecordManager) initNew(pageSize int64) error {
	zero := make([]byte, pageSize)
	if _, err := rm.file.WriteAt(zero, 0); err != nil {
		return err
	}
	store, err := recordio.Open(rm.file, pageSize, pageSize, noOffset)
	if err != nil {
		return err
	}
	rm.store = store
	rm.header = GlobalHeader{
		PageSize:          uint32(pageSize),
		FirstFreePage:     noOffset,
		PreviousBobOffset: noOffset,
		PreviousCpbOffset: noOffset,
	}

	bob, err := rm.initInternalTree(bobName)
	if err != nil {
		return err
	}
	rm.bob = *bob
	rm.header.CurrentBobOffset = bob.headerOffset

	cpb, err := rm.initInternalTree(cpbName)
	if err != nil {
		return err
	}
	rm.cpb = *cpb
	rm.header.CurrentCpbOffset = cpb.headerOffset

	return rm.writeHeader()
}

func (rm *RecordManager) initInternalTree(name string) (*managedTree, error) {
	root := btreepage.Page(btreepage.NewLeaf(0, nil))
	if err := rm.flushPageDirect(root); err != nil {
		return nil, err
	}
	info := BTreeInfo{Fanout: internalFanout, Name: name, KeyCodecName: "bytes", ValueCodecName: "bytes"}
	infoOffset, err := rm.writeRecordDirect(EncodeBTreeInfo(info))
	if err != nil {
		return nil, err
	}
	header := BTreeHeader{RootPageOffset: root.PageOffset(), BTreeInfoOffset: infoOffset}
	headerOffset, err := rm.writeRecordDirect(EncodeBTreeHeader(header))
	if err != nil {
		return nil, err
	}
	return &managedTree{info: info, infoOffset: infoOffset, header: header, headerOffset: headerOffset, root: root}, nil
}

// load reconstructs in-memory state from an existing file: the global
// header, then both internal trees (falling back to the previous*
// offsets if the current one is unreadable), then one entry per
// surviving name in the Btree-of-Btrees.
func (rm *RecordManager) load(fileSize int64) error {
	hdrBuf := make([]byte, recordio.MinPageSize)
	if _, err := rm.file.ReadAt(hdrBuf, 0); err != nil {
		return err
	}
	header := DecodeGlobalHeader(hdrBuf)
	if header.PageSize < recordio.MinPageSize {
		return ErrCorruptHeader
	}
	store, err := recordio.Open(rm.file, int64(header.PageSize), fileSize, header.FirstFreePage)
	if err != nil {
		return err
	}
	rm.store = store
	return rm.reloadFromDisk()
}

// reloadFromDisk re-derives every in-memory field (header, both
// internal trees, the managed-tree map) from what's currently on disk.
// Used both by load (at Open) and by a rolled-back transaction, which
// never touched the on-disk header and so can simply forget its
// in-memory deltas this way.
func (rm *RecordManager) reloadFromDisk() error {
	hdrBuf := make([]byte, recordio.MinPageSize)
	if _, err := rm.file.ReadAt(hdrBuf, 0); err != nil {
		return err
	}
	header := DecodeGlobalHeader(hdrBuf)
	rm.header = header
	rm.store.SetFreeListHead(header.FirstFreePage)

	bob, err := rm.loadManagedTree(header.CurrentBobOffset, header.PreviousBobOffset)
	if err != nil {
		return err
	}
	rm.bob = *bob

	cpb, err := rm.loadManagedTree(header.CurrentCpbOffset, header.PreviousCpbOffset)
	if err != nil {
		return err
	}
	rm.cpb = *cpb

	latest := map[string]*managedTree{}
	err = rm.walkLeaves(rm.bob.root, func(key, value []byte) error {
		name, revision := decodeBobKey(key)
		headerOffset := decodeBobValue(value)
		if cur, ok := latest[name]; ok && cur.header.Revision >= revision {
			return nil
		}
		bh, err := rm.readBTreeHeader(headerOffset)
		if err != nil {
			return err
		}
		info, err := rm.readBTreeInfo(bh.BTreeInfoOffset)
		if err != nil {
			return err
		}
		latest[name] = &managedTree{info: info, infoOffset: bh.BTreeInfoOffset, header: bh, headerOffset: headerOffset}
		return nil
	})
	if err != nil {
		return err
	}
	// Only the surviving (highest) revision's root is resolved: an older
	// revision's page tree may already be freed and its pages reused.
	for _, mt := range latest {
		root, err := rm.ResolvePage(mt.header.RootPageOffset, 0)
		if err != nil {
			return err
		}
		mt.root = root
	}
	rm.trees = latest
	return nil
}

// loadManagedTree reads the BTreeHeader/BTreeInfo/root for one internal
// tree, falling back to the previous offset if the current one can't be
// read (the crash-recovery path the two-phase header write exists for).
func (rm *RecordManager) loadManagedTree(headerOffset, previousOffset int64) (*managedTree, error) {
	mt, err := rm.tryLoadManagedTree(headerOffset)
	if err == nil {
		return mt, nil
	}
	if previousOffset == noOffset {
		return nil, err
	}
	return rm.tryLoadManagedTree(previousOffset)
}

func (rm *RecordManager) tryLoadManagedTree(headerOffset int64) (*managedTree, error) {
	bh, err := rm.readBTreeHeader(headerOffset)
	if err != nil {
		return nil, err
	}
	info, err := rm.readBTreeInfo(bh.BTreeInfoOffset)
	if err != nil {
		return nil, err
	}
	root, err := rm.ResolvePage(bh.RootPageOffset, 0)
	if err != nil {
		return nil, err
	}
	return &managedTree{info: info, infoOffset: bh.BTreeInfoOffset, header: bh, headerOffset: headerOffset, root: root}, nil
}

func (rm *RecordManager) readBTreeHeader(offset int64) (BTreeHeader, error) {
	pages, err := rm.store.ReadChain(offset)
	if err != nil {
		return BTreeHeader{}, err
	}
	return DecodeBTreeHeader(recordio.NewReader(pages)), nil
}

func (rm *RecordManager) readBTreeInfo(offset int64) (BTreeInfo, error) {
	pages, err := rm.store.ReadChain(offset)
	if err != nil {
		return BTreeInfo{}, err
	}
	return DecodeBTreeInfo(recordio.NewReader(pages)), nil
}

// walkLeaves visits every (key, value) pair reachable from root, in
// order. ValueSubtreeRef slots are skipped: this only ever walks BoB and
// CPB, which never allow duplicates (insertIntoBob and insertIntoCpb
// always pass allowDuplicates=false), so no slot here ever escalates to
// one.
func (rm *RecordManager) walkLeaves(root btreepage.Page, fn func(key, value []byte) error) error {
	switch p := root.(type) {
	case *btreepage.Leaf:
		for _, e := range p.Entries {
			switch e.Value.Kind() {
			case btreepage.ValueInline:
				if err := fn(e.Key.Bytes(), e.Value.Single()); err != nil {
					return err
				}
			case btreepage.ValueInlineArray:
				for _, v := range e.Value.InlineValues() {
					if err := fn(e.Key.Bytes(), v); err != nil {
						return err
					}
				}
			}
		}
		return nil
	case *btreepage.Node:
		for _, c := range p.Children {
			child, err := c.Resolve(rm)
			if err != nil {
				return err
			}
			if err := rm.walkLeaves(child, fn); err != nil {
				return err
			}
		}
		return nil
	default:
		return btreealgo.ErrUnknownPageKind
	}
}

// writeHeader rewrites the global header page in place.
func (rm *RecordManager) writeHeader() error {
	buf := EncodeGlobalHeader(rm.header, int(rm.store.PageSize()))
	_, err := rm.file.WriteAt(buf, 0)
	return err
}

// flushPageDirect and writeRecordDirect allocate and flush pages with
// no transaction bookkeeping at all: they exist only for initNew, which
// runs before any transaction (and indeed before rm.tx even has
// anywhere to accumulate into).
func (rm *RecordManager) flushPageDirect(p btreepage.Page) error {
	w := btreepage.Encode(p)
	pages, first, err := w.Finish(rm.store)
	if err != nil {
		return err
	}
	if err := rm.store.Flush(pages...); err != nil {
		return err
	}
	p.SetOffsets(first, pages[len(pages)-1].Offset)
	return nil
}

func (rm *RecordManager) writeRecordDirect(w *recordio.Writer) (int64, error) {
	pages, first, err := w.Finish(rm.store)
	if err != nil {
		return 0, err
	}
	if err := rm.store.Flush(pages...); err != nil {
		return 0, err
	}
	return first, nil
}

// ResolvePage satisfies btreepage.Resolver: it always re-derives the
// chain's true last page rather than trusting the caller's cached
// lastOffset, since recomputing is cheap and never stale.
func (rm *RecordManager) ResolvePage(offset, _ int64) (btreepage.Page, error) {
	pages, err := rm.store.ReadChain(offset)
	if err != nil {
		return nil, err
	}
	last := pages[len(pages)-1].Offset
	return btreepage.DecodePage(recordio.NewReader(pages), offset, last)
}

// flushPage and writeRecord are the transaction-tracked counterparts of
// flushPageDirect/writeRecordDirect: every page they allocate is
// remembered in the open transaction's allocatedPages, so a rollback
// knows what to return to the free list.
func (rm *RecordManager) flushPage(p btreepage.Page) error {
	w := btreepage.Encode(p)
	pages, first, err := w.Finish(rm.store)
	if err != nil {
		return err
	}
	if err := rm.store.Flush(pages...); err != nil {
		return err
	}
	last := pages[len(pages)-1].Offset
	p.SetOffsets(first, last)
	if rm.tx != nil {
		for _, pg := range pages {
			rm.tx.allocatedPages = append(rm.tx.allocatedPages, pg.Offset)
		}
	}
	return nil
}

func (rm *RecordManager) writeRecord(w *recordio.Writer) (int64, error) {
	pages, first, err := w.Finish(rm.store)
	if err != nil {
		return 0, err
	}
	if err := rm.store.Flush(pages...); err != nil {
		return 0, err
	}
	if rm.tx != nil {
		for _, pg := range pages {
			rm.tx.allocatedPages = append(rm.tx.allocatedPages, pg.Offset)
		}
	}
	return first, nil
}

// shadow retires the PageIO chain anchored at offset on behalf of
// treeName: walked in full (a shadowed leaf or node may itself span
// several physical pages), then either appended to this transaction's
// freedPages or, for a user tree with keepRevisions set, accumulated for
// CopiedPagesBtree registration at commit. BoB/CPB's own shadowed pages
// are never kept regardless of keepRevisions — retaining old revisions
// of the bookkeeping trees themselves has no external visibility to
// retain them for.
func (rm *RecordManager) shadow(treeName string, offset int64) {
	if offset < 0 || rm.tx == nil {
		return
	}
	pages, err := rm.store.ReadChain(offset)
	if err != nil {
		rm.tx.shadowErr = err
		return
	}
	offsets := make([]int64, len(pages))
	for i, p := range pages {
		offsets[i] = p.Offset
	}

	if rm.keepRevisions && treeName != bobName && treeName != cpbName {
		sh := rm.tx.shadowedByTree[treeName]
		if sh == nil {
			sh = &treeShadow{baseRevision: rm.trees[treeName].header.Revision}
			rm.tx.shadowedByTree[treeName] = sh
		}
		sh.offsets = append(sh.offsets, offsets...)
		return
	}
	rm.tx.freedPages = append(rm.tx.freedPages, offsets...)
}

// txAdapter implements btreealgo.Transaction for one tree's operation,
// routing Shadow calls to the RecordManager-wide per-transaction lists
// tagged with which tree they came from.
type txAdapter struct {
	rm       *RecordManager
	treeName string
}

func (a *txAdapter) ResolvePage(offset, lastOffset int64) (btreepage.Page, error) {
	return a.rm.ResolvePage(offset, lastOffset)
}
func (a *txAdapter) Flush(p btreepage.Page) error { return a.rm.flushPage(p) }
func (a *txAdapter) Shadow(offset, lastOffset int64) { a.rm.shadow(a.treeName, offset) }

// Begin enters the writer section, starting a fresh transaction if none
// is already open (a nested Begin just deepens the existing one, per
// the reentrant writer lock design).
func (rm *RecordManager) Begin() {
	rm.wlock.Begin()
	if rm.tx == nil {
		rm.tx = &txState{
			shadowedByTree:    map[string]*treeShadow{},
			bobOffsetBeforeTx: rm.bob.headerOffset,
			cpbOffsetBeforeTx: rm.cpb.headerOffset,
		}
	}
}

// Commit ends one level of the writer section. Only the outermost
// Commit (the one that brings the nesting depth back to zero) actually
// performs the two-phase header rewrite; nested calls are no-ops beyond
// releasing their level of the lock, so a caller that brackets several
// BTreeHandle calls with its own Begin/Commit gets exactly one
// crash-consistent header swap for all of them.
func (rm *RecordManager) Commit() error {
	if rm.wlock.Depth() == 0 {
		return ErrNoTransaction
	}
	outermost := rm.wlock.Depth() == 1
	var err error
	if outermost {
		err = rm.finalizeTx(true)
	}
	rm.wlock.End()
	return err
}

// Rollback mirrors Commit: only the outermost call discards the
// transaction's effects (returning allocatedPages to the free list and
// reloading every in-memory field from the still-intact on-disk
// header); nested calls just release their level of the lock.
func (rm *RecordManager) Rollback() error {
	if rm.wlock.Depth() == 0 {
		return ErrNoTransaction
	}
	outermost := rm.wlock.Depth() == 1
	var err error
	if outermost {
		err = rm.finalizeTx(false)
	}
	rm.wlock.End()
	return err
}

// finalizeTx runs while the writer lock is still held at its outermost
// level, so anything it does (including further BoB/CPB mutations for
// keepRevisions) is still serialised against the next Begin.
func (rm *RecordManager) finalizeTx(commit bool) error {
	tx := rm.tx
	if tx == nil {
		return nil
	}
	// rm.tx stays set until return so the CPB inserts below still have
	// their shadowed pages and superseded headers recorded in tx.
	defer func() { rm.tx = nil }()

	if !commit {
		if err := rm.store.ReleasePages(tx.allocatedPages); err != nil {
			return err
		}
		head := rm.store.FreeListHead()
		if err := rm.reloadFromDisk(); err != nil {
			return err
		}
		rm.store.SetFreeListHead(head)
		rm.header.FirstFreePage = head
		return rm.writeHeader()
	}

	if tx.shadowErr != nil {
		return tx.shadowErr
	}

	if rm.keepRevisions {
		for name, sh := range tx.shadowedByTree {
			if err := rm.insertIntoCpb(sh.baseRevision, name, sh.offsets); err != nil {
				return err
			}
		}
	} else {
		for _, sh := range tx.shadowedByTree {
			tx.freedPages = append(tx.freedPages, sh.offsets...)
		}
	}

	// Phase 1: the new roots are already flushed (every Flush call
	// happened synchronously during the operations above); publish the
	// header pointing at them, keeping the pre-transaction BoB/CPB
	// offsets as the crash-recovery fallback.
	rm.header.PreviousBobOffset = tx.bobOffsetBeforeTx
	rm.header.PreviousCpbOffset = tx.cpbOffsetBeforeTx
	rm.header.FirstFreePage = rm.store.FreeListHead()
	if err := rm.writeHeader(); err != nil {
		return err
	}

	// Phase 2: now that the new roots are durably the current ones,
	// shadowed pages are safe to reuse and the fallback offsets are
	// retired.
	if err := rm.store.ReleasePages(tx.freedPages); err != nil {
		return err
	}
	rm.header.FirstFreePage = rm.store.FreeListHead()
	rm.header.PreviousBobOffset = noOffset
	rm.header.PreviousCpbOffset = noOffset
	return rm.writeHeader()
}

// insertIntoBob registers (name, revision) -> headerOffset. Every call
// is a fresh key (revisions only ever increase), so this never hits
// ExistingValue in practice.
func (rm *RecordManager) insertIntoBob(name string, revision uint64, headerOffset int64) error {
	adapter := &txAdapter{rm: rm, treeName: bobName}
	newRoot, _, _, err := btreealgo.InsertRoot(adapter, rm.bob.info.Fanout, rm.bob.header.Revision+1, rm.bob.root, bobKey(name, revision), bobValue(headerOffset), false)
	if err != nil {
		return err
	}
	return rm.commitInternalTree(&rm.bob, newRoot, func(offset int64) { rm.header.CurrentBobOffset = offset })
}

// insertIntoCpb registers the offsets a tree shadowed out of the
// revision it held before this transaction.
func (rm *RecordManager) insertIntoCpb(revision uint64, name string, offsets []int64) error {
	adapter := &txAdapter{rm: rm, treeName: cpbName}
	newRoot, _, _, err := btreealgo.InsertRoot(adapter, rm.cpb.info.Fanout, rm.cpb.header.Revision+1, rm.cpb.root, cpbKey(revision, name), cpbValue(offsets), false)
	if err != nil {
		return err
	}
	return rm.commitInternalTree(&rm.cpb, newRoot, func(offset int64) { rm.header.CurrentCpbOffset = offset })
}

// commitInternalTree writes a new BTreeHeader for an internal tree
// after its root changed and updates mt plus the global header's
// current-offset field via setCurrent. The superseded BTreeHeader record
// is shadowed (freed at commit). The global header itself is not
// rewritten here; that's finalizeTx's job, once per transaction.
func (rm *RecordManager) commitInternalTree(mt *managedTree, newRoot btreepage.Page, setCurrent func(offset int64)) error {
	rm.shadow(mt.info.Name, mt.headerOffset)
	newHeader := BTreeHeader{
		Revision:        mt.header.Revision + 1,
		Count:           mt.header.Count + 1,
		RootPageOffset:  newRoot.PageOffset(),
		BTreeInfoOffset: mt.infoOffset,
	}
	headerOffset, err := rm.writeRecord(EncodeBTreeHeader(newHeader))
	if err != nil {
		return err
	}
	mt.header = newHeader
	mt.root = newRoot
	mt.headerOffset = headerOffset
	setCurrent(headerOffset)
	return nil
}

// DropRevision reclaims the physical pages CopiedPagesBtree kept for
// (treeName, revision): a past revision of treeName that was shadowed
// out while SetKeepRevisions(true) was in effect. Its CPB entry is
// deleted and the pages it names are returned to the free list; the
// tree's BoB history (the revision's BTreeHeader/BTreeInfo) is
// untouched, since BoB never forgets a committed revision regardless of
// keepRevisions. Returns ErrRevisionNotRetained if there's no CPB entry
// to drop (keepRevisions was off at the time, it's the current
// revision, or it was already dropped).
func (rm *RecordManager) DropRevision(treeName string, revision uint64) error {
	if _, ok := rm.trees[treeName]; !ok {
		return ErrNotManaged
	}

	key := cpbKey(revision, treeName)
	v, found, err := btreealgo.Search(rm, rm.cpb.root, key)
	if err != nil {
		return err
	}
	if !found {
		return ErrRevisionNotRetained
	}
	offsets := decodeCpbValue(v.Single())

	rm.Begin()

	adapter := &txAdapter{rm: rm, treeName: cpbName}
	newRoot, _, _, err := btreealgo.DeleteRoot(adapter, rm.cpb.info.Fanout, rm.cpb.header.Revision+1, rm.cpb.root, key)
	if err != nil {
		rm.Rollback()
		return err
	}
	if err := rm.commitInternalTree(&rm.cpb, newRoot, func(offset int64) { rm.header.CurrentCpbOffset = offset }); err != nil {
		rm.Rollback()
		return err
	}
	rm.tx.freedPages = append(rm.tx.freedPages, offsets...)

	return rm.Commit()
}

// AddTree registers a brand-new, empty tree. Fails with
// ErrAlreadyManaged if name is already taken.
func (rm *RecordManager) AddTree(name string, fanout int, keyCodecName, valueCodecName string, allowDuplicates bool) (*BTreeHandle, error) {
	rm.Begin()

	if _, exists := rm.trees[name]; exists {
		rm.Rollback()
		return nil, ErrAlreadyManaged
	}

	root := btreepage.Page(btreepage.NewLeaf(0, nil))
	if err := rm.flushPage(root); err != nil {
		rm.Rollback()
		return nil, err
	}
	info := BTreeInfo{Fanout: fanout, Name: name, KeyCodecName: keyCodecName, ValueCodecName: valueCodecName, AllowDuplicates: allowDuplicates}
	infoOffset, err := rm.writeRecord(EncodeBTreeInfo(info))
	if err != nil {
		rm.Rollback()
		return nil, err
	}
	header := BTreeHeader{RootPageOffset: root.PageOffset(), BTreeInfoOffset: infoOffset}
	headerOffset, err := rm.writeRecord(EncodeBTreeHeader(header))
	if err != nil {
		rm.Rollback()
		return nil, err
	}

	rm.trees[name] = &managedTree{info: info, infoOffset: infoOffset, header: header, headerOffset: headerOffset, root: root}
	rm.header.ManagedTreeCount++

	if err := rm.insertIntoBob(name, 0, headerOffset); err != nil {
		rm.Rollback()
		return nil, err
	}

	if err := rm.Commit(); err != nil {
		return nil, err
	}
	return &BTreeHandle{rm: rm, name: name}, nil
}

// Tree looks up an already-managed tree by name.
func (rm *RecordManager) Tree(name string) (*BTreeHandle, error) {
	if _, ok := rm.trees[name]; !ok {
		return nil, ErrNotManaged
	}
	return &BTreeHandle{rm: rm, name: name}, nil
}
