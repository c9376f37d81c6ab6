package recordio

import (
	"fmt"
	"os"
	"sync"
)

// Store is the PageIO layer: it reads and writes fixed-size physical
// pages positionally against a growing file and maintains a singly
// linked free-page list. Offset 0 is reserved for the caller's global
// header and is never handed out by Allocate.
//
// Store does not itself know about transactions or revisions; callers
// (RecordManager) decide when a page's old offset should be returned to
// the free list via ReleasePages, and persist FreeListHead() into their
// own header on commit.
type Store struct {
	mu           sync.Mutex
	file         *os.File
	pageSize     int64
	fileSize     int64
	freeListHead int64
}

// Open wraps an already-opened file as a Store. fileSize is the current
// size of the file in bytes (a multiple of pageSize) and freeListHead is
// the free-list head offset recovered from the caller's header, or
// EndOfChain if the list is empty.
func Open(f *os.File, pageSize int64, fileSize int64, freeListHead int64) (*Store, error) {
	if pageSize < MinPageSize {
		return nil, ErrInvalidPageSize
	}
	return &Store{
		file:         f,
		pageSize:     pageSize,
		fileSize:     fileSize,
		freeListHead: freeListHead,
	}, nil
}

// PageSize returns the configured physical page size.
func (s *Store) PageSize() int64 {
	return s.pageSize
}

// FileSize returns the current size of the backing file.
func (s *Store) FileSize() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileSize
}

// FreeListHead returns the current head of the free-page list.
func (s *Store) FreeListHead() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freeListHead
}

// SetFreeListHead overwrites the in-memory free-list head, used when
// RecordManager reloads a header (e.g. after reopening the file, or after
// rolling back to a previous header snapshot).
func (s *Store) SetFreeListHead(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freeListHead = offset
}

// checkOffset rejects negative, beyond-EOF, or non-page-aligned offsets.
// The sentinel EndOfChain is always accepted.
func (s *Store) checkOffset(offset int64) error {
	if offset == EndOfChain {
		return nil
	}
	if offset < 0 || offset >= s.fileSize || offset%s.pageSize != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}
	return nil
}

// Fetch reads exactly pageSize bytes positionally at offset.
func (s *Store) Fetch(offset int64) (*Page, error) {
	s.mu.Lock()
	if err := s.checkOffset(offset); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	buf := make([]byte, s.pageSize)
	n, err := s.file.ReadAt(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("recordio: fetch page at %d: %w", offset, err)
	}
	if int64(n) != s.pageSize {
		return nil, fmt.Errorf("recordio: fetch page at %d: %w", offset, ErrEndOfFile)
	}
	return newPage(offset, buf), nil
}

// Allocate returns a free page: popped from the free list when one is
// available, otherwise appended at the end of the file. The returned
// page is zeroed, with no next page and a logical size of zero.
func (s *Store) Allocate() (*Page, error) {
	s.mu.Lock()
	head := s.freeListHead
	s.mu.Unlock()

	if head != EndOfChain {
		free, err := s.Fetch(head)
		if err != nil {
			return nil, fmt.Errorf("recordio: allocate from free list: %w", err)
		}
		s.mu.Lock()
		s.freeListHead = free.Next()
		s.mu.Unlock()
		free.Reset()
		return free, nil
	}

	s.mu.Lock()
	offset := s.fileSize
	s.fileSize += s.pageSize
	s.mu.Unlock()

	buf := make([]byte, s.pageSize)
	page := newPage(offset, buf)
	page.SetNext(EndOfChain)
	if _, err := s.file.WriteAt(buf, offset); err != nil {
		return nil, fmt.Errorf("recordio: extend file for new page at %d: %w", offset, err)
	}
	return page, nil
}

// Flush writes each page at its own offset.
func (s *Store) Flush(pages ...*Page) error {
	for _, p := range pages {
		if _, err := s.file.WriteAt(p.Raw(), p.Offset); err != nil {
			return fmt.Errorf("recordio: flush page at %d: %w", p.Offset, err)
		}
	}
	return nil
}

// Sync flushes OS buffers for the backing file.
func (s *Store) Sync() error {
	return s.file.Sync()
}

// ReleasePages returns a set of now-shadowed page offsets to the free
// list, one at a time, each time pushing at the head (LIFO) so recently
// freed pages are the first to be reused and stay warm in the OS cache.
// This does not flush; callers persist the resulting FreeListHead() into
// their own header as part of the commit protocol.
func (s *Store) ReleasePages(offsets []int64) error {
	for _, off := range offsets {
		page, err := s.Fetch(off)
		if err != nil {
			return fmt.Errorf("recordio: release page %d: %w", off, err)
		}
		s.mu.Lock()
		page.SetNext(s.freeListHead)
		s.freeListHead = off
		s.mu.Unlock()
		if err := s.Flush(page); err != nil {
			return err
		}
	}
	return nil
}

// ReadChain walks the page chain anchored at offset, returning every page
// from the first (whose LogicalSize gives the chain's total payload
// length) to the last page needed to cover that many bytes.
func (s *Store) ReadChain(offset int64) ([]*Page, error) {
	first, err := s.Fetch(offset)
	if err != nil {
		return nil, err
	}
	limit := int(first.LogicalSize())
	pages := []*Page{first}

	collected := len(first.FirstPayload())
	if collected > limit {
		collected = limit
	}
	next := first.Next()
	for collected < limit {
		if next == EndOfChain {
			return nil, fmt.Errorf("recordio: chain at %d: %w", offset, ErrEndOfFile)
		}
		page, err := s.Fetch(next)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		collected += len(page.ContPayload())
		next = page.Next()
	}
	return pages, nil
}
