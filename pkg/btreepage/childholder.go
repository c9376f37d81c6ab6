package btreepage

import "sync"

// ChildHolder is a Node's reference to one child page. It starts out
// unresolved — just the two PageIO offsets persisted on disk — and is
// resolved to an in-memory Page lazily, on first access, via a Resolver.
// Resolution is memoised: once resolved, every later call returns the
// same Page without refetching.
type ChildHolder struct {
	mu sync.Mutex

	offset     int64
	lastOffset int64
	resolved   Page
}

// NewUnresolvedChild builds a child reference from its on-disk offsets,
// without touching storage.
func NewUnresolvedChild(offset, lastOffset int64) *ChildHolder {
	return &ChildHolder{offset: offset, lastOffset: lastOffset}
}

// NewResolvedChild wraps an already in-memory page, typically one just
// built by an Insert/Delete result in the current transaction. The
// holder copies p's offset/lastOffset as they stand when it is built
// (-1 for a page not yet flushed).
func NewResolvedChild(p Page) *ChildHolder {
	return &ChildHolder{
		offset:     p.PageOffset(),
		lastOffset: p.PageLastOffset(),
		resolved:   p,
	}
}

// Offsets returns the PageIO offsets this child points at, resolved or
// not: (firstPageOffset, lastPageOffset).
func (c *ChildHolder) Offsets() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.lastOffset
}

// SetOffsets records where an in-memory child landed once its chain was
// flushed, so a later encode of the parent Node can serialise the link.
func (c *ChildHolder) SetOffsets(offset, lastOffset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
	c.lastOffset = lastOffset
}

// Resolved reports whether the in-memory page is already available
// without needing a Resolver.
func (c *ChildHolder) Resolved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved != nil
}

// Peek returns the already-resolved page, or nil if resolution hasn't
// happened yet. Unlike Resolve, it never touches storage.
func (c *ChildHolder) Peek() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolved
}

// Resolve fetches and deserialises the child page on first call, then
// memoises and returns the same Page on every later call. A holder built
// via NewResolvedChild never calls into r.
func (c *ChildHolder) Resolve(r Resolver) (Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved != nil {
		return c.resolved, nil
	}
	p, err := r.ResolvePage(c.offset, c.lastOffset)
	if err != nil {
		return nil, err
	}
	c.resolved = p
	return p, nil
}
