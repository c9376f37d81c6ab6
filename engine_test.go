// Package engine_test exercises the storage engine end to end, the way
// the teacher's root-level tests package exercised turdb: each test
// walks one of the concrete before/after scenarios, driving only the
// public recordmgr API against a real temp file.
package engine_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
	"github.com/dibyang/directory-mavibot/pkg/recordmgr"
)

func u64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// readHeaderPage reads page 0 (the global header, never chained or
// shadowed) directly off disk. Used only to splice a stale header back
// onto a newer file body for the crash simulation below.
func readHeaderPage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, 64)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func openEngine(t *testing.T) (*recordmgr.RecordManager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.mvb")
	rm, err := recordmgr.Open(path, 64)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { rm.Close() })
	return rm, path
}

// TestS1OpenAddTreeInsertGet: open a new file, add tree "T", insert
// (10,"a"), commit; get(10) finds it, get(11) doesn't.
func TestS1OpenAddTreeInsertGet(t *testing.T) {
	rm, _ := openEngine(t)

	h, err := rm.AddTree("T", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, _, err := h.Insert(u64(10), []byte("a")); err != nil {
		t.Fatalf("Insert(10): %v", err)
	}

	v, found, err := h.Get(u64(10))
	if err != nil {
		t.Fatalf("Get(10): %v", err)
	}
	if !found || string(v.Single()) != "a" {
		t.Fatalf("Get(10) = (%v, %v), want (\"a\", true)", v, found)
	}

	_, found, err = h.Get(u64(11))
	if err != nil {
		t.Fatalf("Get(11): %v", err)
	}
	if found {
		t.Fatalf("expected Get(11) to miss")
	}
}

// buildS2 reproduces S1 then forces a leaf split per S2: inserting
// 20,30,40,50 after 10 splits the root into a Node separated on 30.
func buildS2(t *testing.T) (*recordmgr.RecordManager, *recordmgr.BTreeHandle) {
	t.Helper()
	rm, _ := openEngine(t)

	h, err := rm.AddTree("T", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, kv := range []struct {
		k uint64
		v string
	}{{10, "a"}, {20, "b"}, {30, "c"}, {40, "d"}, {50, "e"}} {
		if _, _, err := h.Insert(u64(kv.k), []byte(kv.v)); err != nil {
			t.Fatalf("Insert(%d): %v", kv.k, err)
		}
	}
	return rm, h
}

func TestS2LeafSplitAndBrowseIsSorted(t *testing.T) {
	_, h := buildS2(t)

	root, resolver, err := h.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	node, ok := root.(*btreepage.Node)
	if !ok {
		t.Fatalf("expected root to become a Node after the forcing insert, got %T", root)
	}
	if len(node.Keys) != 1 || !bytes.Equal(node.Keys[0].Bytes(), u64(30)) {
		t.Fatalf("expected a single separator key 30, got %v", node.Keys)
	}
	_ = resolver

	cur, err := h.Browse()
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	defer cur.Close()

	want := []struct {
		k uint64
		v string
	}{{10, "a"}, {20, "b"}, {30, "c"}, {40, "d"}, {50, "e"}}
	i := 0
	for cur.First(); cur.Valid(); cur.Next() {
		if i >= len(want) {
			t.Fatalf("browse produced more than %d entries", len(want))
		}
		w := want[i]
		if !bytes.Equal(cur.Key(), u64(w.k)) || string(cur.Value().Single()) != w.v {
			t.Fatalf("browse entry = (%x,%q), want (%d,%q)", cur.Key(), cur.Value().Single(), w.k, w.v)
		}
		i++
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("cursor error: %v", err)
	}
	if i != len(want) {
		t.Fatalf("browse visited %d entries, want %d", i, len(want))
	}
}

// TestS3DeleteBorrowsAndRefreshesSeparator: from S2, deleting 10 drains
// the left leaf below minimum occupancy, forcing a borrow from the
// right leaf; the root separator is refreshed to the new boundary (40).
func TestS3DeleteBorrowsAndRefreshesSeparator(t *testing.T) {
	_, h := buildS2(t)

	if _, found, err := h.Delete(u64(10)); err != nil || !found {
		t.Fatalf("Delete(10): found=%v err=%v", found, err)
	}

	if _, found, err := h.Get(u64(10)); err != nil || found {
		t.Fatalf("Get(10) after delete: found=%v err=%v", found, err)
	}

	root, _, err := h.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	node, ok := root.(*btreepage.Node)
	if !ok {
		t.Fatalf("expected root to remain a Node, got %T", root)
	}
	if len(node.Keys) != 1 || !bytes.Equal(node.Keys[0].Bytes(), u64(40)) {
		t.Fatalf("expected separator to be refreshed to 40, got %v", node.Keys)
	}

	v, found, err := h.Get(u64(30))
	if err != nil {
		t.Fatalf("Get(30): %v", err)
	}
	if !found || string(v.Single()) != "c" {
		t.Fatalf("Get(30) = (%v,%v), want (\"c\",true)", v, found)
	}
}

// TestS4KeptRevisionSurvivesLaterDelete: from S2 with keepRevisions set,
// a later delete doesn't disturb a lookup pinned to the earlier revision.
func TestS4KeptRevisionSurvivesLaterDelete(t *testing.T) {
	rm, _ := openEngine(t)
	rm.SetKeepRevisions(true)

	h, err := rm.AddTree("T", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, kv := range []struct {
		k uint64
		v string
	}{{10, "a"}, {20, "b"}, {30, "c"}, {40, "d"}, {50, "e"}} {
		if _, _, err := h.Insert(u64(kv.k), []byte(kv.v)); err != nil {
			t.Fatalf("Insert(%d): %v", kv.k, err)
		}
	}
	revisionOfS2, err := h.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}

	if _, found, err := h.Delete(u64(10)); err != nil || !found {
		t.Fatalf("Delete(10): found=%v err=%v", found, err)
	}

	v, found, err := h.GetAtRevision(u64(20), revisionOfS2)
	if err != nil {
		t.Fatalf("GetAtRevision(20, %d): %v", revisionOfS2, err)
	}
	if !found || string(v.Single()) != "b" {
		t.Fatalf("GetAtRevision(20, %d) = (%v,%v), want (\"b\",true)", revisionOfS2, v, found)
	}
}

// TestS5IntegrityCheckOverThirtyTwoInserts runs the full integrity
// checker over a tree built from 32 distinct inserts, as a clean
// database with no corruption should report zero findings.
func TestS5IntegrityCheckOverThirtyTwoInserts(t *testing.T) {
	rm, _ := openEngine(t)

	h, err := rm.AddTree("T", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for i := uint64(0); i < 32; i++ {
		if _, _, err := h.Insert(u64(i), []byte{byte(i)}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	if errs := rm.IntegrityCheck(); len(errs) != 0 {
		t.Fatalf("IntegrityCheck over 32 inserts: %v", errs)
	}
}

// TestS6ReopenAfterCrashBeforeHeaderSwapSeesOldState simulates killing
// the process between the new BTreeHeader/page data being durably
// flushed and the two-phase commit's first global-header rewrite: it
// captures the real header bytes recordmgr wrote before the insert,
// splices them back onto the post-insert file (whose data pages are
// genuinely on disk, just not yet pointed at), and confirms reopening
// that hybrid file yields the previous committed state rather than a
// corrupt or partially-visible one.
func TestS6ReopenAfterCrashBeforeHeaderSwapSeesOldState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.mvb")
	rm, err := recordmgr.Open(path, 64)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	h, err := rm.AddTree("T", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	preHeader, err := readHeaderPage(path)
	if err != nil {
		t.Fatalf("read pre-insert header: %v", err)
	}

	if _, _, err := h.Insert(u64(1), []byte("x")); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}
	if err := rm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	full, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	crashed := append([]byte{}, full...)
	copy(crashed[:len(preHeader)], preHeader)

	crashedPath := filepath.Join(filepath.Dir(path), "crashed.mvb")
	if err := os.WriteFile(crashedPath, crashed, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rm2, err := recordmgr.Open(crashedPath, 0)
	if err != nil {
		t.Fatalf("reopen crashed file: %v", err)
	}
	defer rm2.Close()

	h2, err := rm2.Tree("T")
	if err != nil {
		t.Fatalf("Tree(T) after crash: %v", err)
	}
	if _, found, err := h2.Get(u64(1)); err != nil || found {
		t.Fatalf("Get(1) after simulated crash: found=%v err=%v, want not found (previous committed state)", found, err)
	}

	rm3, err := recordmgr.Open(path, 0)
	if err != nil {
		t.Fatalf("reopen uncorrupted file: %v", err)
	}
	defer rm3.Close()
	h3, err := rm3.Tree("T")
	if err != nil {
		t.Fatalf("Tree(T): %v", err)
	}
	v, found, err := h3.Get(u64(1))
	if err != nil || !found || string(v.Single()) != "x" {
		t.Fatalf("Get(1) on the uncorrupted file = (%v,%v,%v), want (\"x\",true,nil)", v, found, err)
	}
}
