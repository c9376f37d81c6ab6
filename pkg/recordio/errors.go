package recordio

import "errors"

var (
	// ErrInvalidOffset is returned when a caller or on-disk pointer
	// violates the page-offset invariants: negative, beyond end of file,
	// or not aligned on a pageSize boundary.
	ErrInvalidOffset = errors.New("recordio: invalid page offset")

	// ErrEndOfFile is returned when a chain read runs past the bytes the
	// underlying file actually has.
	ErrEndOfFile = errors.New("recordio: unexpected end of file")

	// ErrFreePageError indicates free-list corruption: a cycle, or a link
	// pointing beyond the end of the file.
	ErrFreePageError = errors.New("recordio: free list is corrupt")

	// ErrInvalidPageSize is returned by Open/Create when pageSize is
	// smaller than the minimum the format allows.
	ErrInvalidPageSize = errors.New("recordio: page size must be >= 64 bytes")
)

// MinPageSize is the smallest page size the format allows: the global
// header is 48 bytes of fields and must fit in a single page (spec §6).
const MinPageSize = 64
