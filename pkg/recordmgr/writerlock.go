package recordmgr

import "sync"

// writerLock is the reentrant single-writer mutex RecordManager serves
// begin/commit/rollback through: Begin takes the underlying exclusive
// lock only on the outermost call (depth 0 -> 1); nested Begin calls
// from the same call chain just bump the depth. End mirrors it,
// releasing the underlying lock only when depth returns to zero.
//
// It is a mutex plus a depth counter and keeps no owner-thread field, so
// it does not tell callers apart: a Begin from any goroutine while the
// depth is above zero joins the open transaction (bumps the depth)
// without blocking, and is neither serialised nor rejected.
type writerLock struct {
	mu    sync.Mutex
	held  sync.Mutex
	depth int
}

// Begin enters the writer section. At depth 0 it blocks until the
// underlying lock is free; at any higher depth it only bumps the depth,
// whichever goroutine calls it.
func (w *writerLock) Begin() {
	w.mu.Lock()
	depth := w.depth
	w.mu.Unlock()

	if depth == 0 {
		w.held.Lock()
	}

	w.mu.Lock()
	w.depth++
	w.mu.Unlock()
}

// End leaves one level of the writer section, releasing the underlying
// lock once depth returns to zero. Returns the depth after this call.
func (w *writerLock) End() int {
	w.mu.Lock()
	w.depth--
	d := w.depth
	w.mu.Unlock()
	if d == 0 {
		w.held.Unlock()
	}
	return d
}

// Depth reports the current nesting depth (0 means no writer active).
func (w *writerLock) Depth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.depth
}
