package recordio

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, pageSize int64) (*Store, func()) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("open backing file: %v", err)
	}
	// Reserve page 0 for a caller-owned header, as the real format does.
	if _, err := f.WriteAt(make([]byte, pageSize), 0); err != nil {
		t.Fatalf("reserve header page: %v", err)
	}

	s, err := Open(f, pageSize, pageSize, EndOfChain)
	if err != nil {
		t.Fatalf("Open store: %v", err)
	}
	return s, func() { f.Close() }
}

func TestAllocateExtendsFile(t *testing.T) {
	s, closeFn := openTestStore(t, 64)
	defer closeFn()

	p1, err := s.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if p1.Offset != 64 {
		t.Fatalf("expected first allocated page at offset 64, got %d", p1.Offset)
	}
	if p1.Next() != EndOfChain {
		t.Fatalf("freshly allocated page should have no next, got %d", p1.Next())
	}

	p2, err := s.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if p2.Offset != 128 {
		t.Fatalf("expected second allocated page at offset 128, got %d", p2.Offset)
	}
}

func TestAllocateReusesFreeList(t *testing.T) {
	s, closeFn := openTestStore(t, 64)
	defer closeFn()

	p1, _ := s.Allocate()
	p2, _ := s.Allocate()
	_ = p2

	if err := s.ReleasePages([]int64{p1.Offset}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.FreeListHead() != p1.Offset {
		t.Fatalf("expected free list head %d, got %d", p1.Offset, s.FreeListHead())
	}

	reused, err := s.Allocate()
	if err != nil {
		t.Fatalf("allocate from free list: %v", err)
	}
	if reused.Offset != p1.Offset {
		t.Fatalf("expected reused page at %d, got %d", p1.Offset, reused.Offset)
	}
	if s.FreeListHead() != EndOfChain {
		t.Fatalf("expected free list empty after reuse, got head %d", s.FreeListHead())
	}
}

func TestFreeListLIFO(t *testing.T) {
	s, closeFn := openTestStore(t, 64)
	defer closeFn()

	p1, _ := s.Allocate()
	p2, _ := s.Allocate()
	p3, _ := s.Allocate()

	if err := s.ReleasePages([]int64{p1.Offset, p2.Offset, p3.Offset}); err != nil {
		t.Fatalf("release: %v", err)
	}

	// LIFO: p3 was released last, so it's popped first.
	first, _ := s.Allocate()
	if first.Offset != p3.Offset {
		t.Fatalf("expected LIFO reuse of %d, got %d", p3.Offset, first.Offset)
	}
	second, _ := s.Allocate()
	if second.Offset != p2.Offset {
		t.Fatalf("expected LIFO reuse of %d, got %d", p2.Offset, second.Offset)
	}
	third, _ := s.Allocate()
	if third.Offset != p1.Offset {
		t.Fatalf("expected LIFO reuse of %d, got %d", p1.Offset, third.Offset)
	}
}

func TestCheckOffsetRejectsMisaligned(t *testing.T) {
	s, closeFn := openTestStore(t, 64)
	defer closeFn()

	if _, err := s.Fetch(-2); err == nil {
		t.Fatalf("expected error for negative offset")
	}
	if _, err := s.Fetch(1); err == nil {
		t.Fatalf("expected error for misaligned offset")
	}
	if _, err := s.Fetch(1 << 20); err == nil {
		t.Fatalf("expected error for beyond-EOF offset")
	}
}

func TestFetchReturnsFlushedBytes(t *testing.T) {
	s, closeFn := openTestStore(t, 64)
	defer closeFn()

	p, err := s.Allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	copy(p.FirstPayload(), []byte("hello"))
	if err := s.Flush(p); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got, err := s.Fetch(p.Offset)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got.FirstPayload()[:5]) != "hello" {
		t.Fatalf("expected to read back flushed payload, got %q", got.FirstPayload()[:5])
	}
}
