package recordmgr

import (
	"encoding/binary"
	"path/filepath"
	"testing"
)

func u64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func openTestManager(t *testing.T, pageSize int64) (*RecordManager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mvb")
	rm, err := Open(path, pageSize)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { rm.Close() })
	return rm, path
}

func TestOpenNewFileInitialisesBothInternalTrees(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	if rm.header.CurrentBobOffset <= 0 || rm.header.CurrentCpbOffset <= 0 {
		t.Fatalf("expected both internal trees to have a real header offset, got bob=%d cpb=%d", rm.header.CurrentBobOffset, rm.header.CurrentCpbOffset)
	}
	if rm.header.CurrentBobOffset == rm.header.CurrentCpbOffset {
		t.Fatalf("expected distinct offsets for BoB and CPB headers")
	}
	if rm.bob.info.Name != bobName {
		t.Errorf("bob.info.Name = %q, want %q", rm.bob.info.Name, bobName)
	}
	if rm.cpb.info.Name != cpbName {
		t.Errorf("cpb.info.Name = %q, want %q", rm.cpb.info.Name, cpbName)
	}
	if rm.header.PreviousBobOffset != noOffset || rm.header.PreviousCpbOffset != noOffset {
		t.Errorf("expected no previous-offset fallback on a fresh file")
	}
}

func TestAddTreeThenReopenSeesIt(t *testing.T) {
	rm, path := openTestManager(t, 128)

	if _, err := rm.AddTree("widgets", 4, "u64", "bytes", false); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if rm.header.ManagedTreeCount != 1 {
		t.Errorf("ManagedTreeCount = %d, want 1", rm.header.ManagedTreeCount)
	}
	if err := rm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rm2, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rm2.Close()

	if _, ok := rm2.trees["widgets"]; !ok {
		t.Fatalf("expected tree %q to survive reopen", "widgets")
	}
}

func TestAddTreeDuplicateNameFails(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	if _, err := rm.AddTree("widgets", 4, "u64", "bytes", false); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, err := rm.AddTree("widgets", 4, "u64", "bytes", false); err != ErrAlreadyManaged {
		t.Fatalf("AddTree duplicate: got %v, want %v", err, ErrAlreadyManaged)
	}
}

func TestInsertGetDelete(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	if _, had, err := h.Insert(u64(10), []byte("a")); err != nil || had {
		t.Fatalf("Insert(10): had=%v err=%v", had, err)
	}

	v, found, err := h.Get(u64(10))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || string(v.Single()) != "a" {
		t.Fatalf("Get(10) = (%v, %v), want (\"a\", true)", v, found)
	}

	removed, found, err := h.Delete(u64(10))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !found || string(removed.Single()) != "a" {
		t.Fatalf("Delete(10) = (%v, %v), want (\"a\", true)", removed, found)
	}

	if _, found, err := h.Get(u64(10)); err != nil || found {
		t.Fatalf("Get after delete: found=%v err=%v", found, err)
	}
}

func TestInsertForcesSplitAcrossCommits(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	keys := []uint64{10, 20, 30, 40, 50}
	for _, k := range keys {
		if _, _, err := h.Insert(u64(k), []byte{byte(k)}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	for _, k := range keys {
		v, found, err := h.Get(u64(k))
		if err != nil || !found {
			t.Fatalf("Get(%d): found=%v err=%v", k, found, err)
		}
		if v.Single()[0] != byte(k) {
			t.Fatalf("Get(%d) = %v, want %v", k, v.Single(), []byte{byte(k)})
		}
	}
}

func TestBatchedTransactionCollapsesToOneHeaderRewrite(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	rm.Begin()
	for _, k := range []uint64{1, 2, 3} {
		if _, _, err := h.Insert(u64(k), []byte("x")); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}
	if rm.wlock.Depth() != 1 {
		t.Fatalf("expected nested Inserts to collapse into the outer Begin, depth = %d", rm.wlock.Depth())
	}
	if err := rm.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if rm.wlock.Depth() != 0 {
		t.Fatalf("expected Commit to fully unwind, depth = %d", rm.wlock.Depth())
	}

	for _, k := range []uint64{1, 2, 3} {
		if _, found, err := h.Get(u64(k)); err != nil || !found {
			t.Fatalf("Get(%d) after batched commit: found=%v err=%v", k, found, err)
		}
	}
}

func TestRollbackDiscardsUncommittedInsert(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	rm.Begin()
	if _, _, err := h.Insert(u64(1), []byte("x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := rm.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, found, err := h.Get(u64(1)); err != nil || found {
		t.Fatalf("Get after rollback: found=%v err=%v, want not found", found, err)
	}
}

func TestCommitWithoutBeginReturnsErrNoTransaction(t *testing.T) {
	rm, _ := openTestManager(t, 128)
	if err := rm.Commit(); err != ErrNoTransaction {
		t.Fatalf("Commit with no transaction: got %v, want %v", err, ErrNoTransaction)
	}
}

func TestKeepRevisionsPreservesOldRevisionAfterDelete(t *testing.T) {
	rm, _ := openTestManager(t, 128)
	rm.SetKeepRevisions(true)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", true)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	if _, _, err := h.Insert(u64(1), []byte("first")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rev1, err := h.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}

	if _, _, err := h.Delete(u64(1)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	v, found, err := h.GetAtRevision(u64(1), rev1)
	if err != nil {
		t.Fatalf("GetAtRevision: %v", err)
	}
	if !found || string(v.Single()) != "first" {
		t.Fatalf("GetAtRevision(rev=%d) = (%v, %v), want (\"first\", true)", rev1, v, found)
	}
}

func TestDropRevisionReclaimsRetainedPagesAndIsNotRepeatable(t *testing.T) {
	rm, _ := openTestManager(t, 128)
	rm.SetKeepRevisions(true)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", true)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	if _, _, err := h.Insert(u64(1), []byte("first")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rev1, err := h.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}

	if _, _, err := h.Delete(u64(1)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, _, err := h.GetAtRevision(u64(1), rev1); err != nil {
		t.Fatalf("GetAtRevision before drop: %v", err)
	}

	if err := rm.DropRevision("widgets", rev1); err != nil {
		t.Fatalf("DropRevision: %v", err)
	}

	if err := rm.DropRevision("widgets", rev1); err != ErrRevisionNotRetained {
		t.Fatalf("DropRevision twice: got %v, want %v", err, ErrRevisionNotRetained)
	}
}

func TestDropRevisionWithoutKeepRevisionsIsNotRetained(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, _, err := h.Insert(u64(1), []byte("first")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rev1, err := h.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if _, _, err := h.Delete(u64(1)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := rm.DropRevision("widgets", rev1); err != ErrRevisionNotRetained {
		t.Fatalf("DropRevision without keepRevisions: got %v, want %v", err, ErrRevisionNotRetained)
	}
}

func TestDropRevisionUnmanagedTreeFails(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	if err := rm.DropRevision("ghost", 1); err != ErrNotManaged {
		t.Fatalf("DropRevision on unmanaged tree: got %v, want %v", err, ErrNotManaged)
	}
}

func TestBrowseVisitsEntriesInOrder(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, k := range []uint64{30, 10, 50, 20, 40} {
		if _, _, err := h.Insert(u64(k), []byte{byte(k)}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}

	cur, err := h.Browse()
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	defer cur.Close()

	var got []uint64
	for cur.First(); cur.Valid(); cur.Next() {
		got = append(got, binary.BigEndian.Uint64(cur.Key()))
	}
	if err := cur.Err(); err != nil {
		t.Fatalf("cursor error: %v", err)
	}

	want := []uint64{10, 20, 30, 40, 50}
	if len(got) != len(want) {
		t.Fatalf("Browse visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Browse[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
