package recordmgr

import "testing"

func TestIntegrityCheckCleanDatabaseHasNoErrors(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, k := range []uint64{10, 20, 30, 40, 50, 60, 70} {
		if _, _, err := h.Insert(u64(k), []byte{byte(k)}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}
	if _, _, err := h.Delete(u64(30)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if errs := rm.IntegrityCheck(); len(errs) != 0 {
		t.Fatalf("IntegrityCheck on a clean database: %v", errs)
	}
}

func TestIntegrityCheckCleanDatabaseWithKeepRevisions(t *testing.T) {
	rm, _ := openTestManager(t, 128)
	rm.SetKeepRevisions(true)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", true)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, k := range []uint64{1, 2, 3, 4, 5} {
		if _, _, err := h.Insert(u64(k), []byte{byte(k)}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}
	if _, _, err := h.Delete(u64(3)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if errs := rm.IntegrityCheck(); len(errs) != 0 {
		t.Fatalf("IntegrityCheck with keepRevisions: %v", errs)
	}
}

func TestIntegrityCheckAfterReopen(t *testing.T) {
	rm, path := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	for _, k := range []uint64{10, 20, 30, 40, 50} {
		if _, _, err := h.Insert(u64(k), []byte{byte(k)}); err != nil {
			t.Fatalf("Insert(%d): %v", k, err)
		}
	}
	if err := rm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rm2, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rm2.Close()

	if errs := rm2.IntegrityCheck(); len(errs) != 0 {
		t.Fatalf("IntegrityCheck after reopen: %v", errs)
	}
}

func TestQuickCheckCleanDatabase(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, _, err := h.Insert(u64(1), []byte("a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if errs := rm.QuickCheck(); len(errs) != 0 {
		t.Fatalf("QuickCheck: %v", errs)
	}
}

func TestIntegrityCheckDetectsPageClaimedByFreeListAndTree(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, "u64", "bytes", false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if _, _, err := h.Insert(u64(1), []byte("a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tree := rm.trees["widgets"]
	rm.header.FirstFreePage = tree.root.PageOffset()

	errs := rm.IntegrityCheck()
	if len(errs) == 0 {
		t.Fatalf("expected IntegrityCheck to flag the root page as both free and live")
	}
	found := false
	for _, e := range errs {
		if e.Type == "freelist" || e.Type == "btree" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a claim-conflict error, got %v", errs)
	}
}

func TestIntegrityErrorString(t *testing.T) {
	e := IntegrityError{Type: "btree", Tree: "widgets", Page: 128, Message: "boom"}
	want := "[btree] tree widgets, page 128: boom"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}
