// Package cursor provides ordered iteration over a btreepage tree,
// independent of how its pages got there (in memory mid-transaction, or
// resolved lazily from disk via a RecordManager). A Cursor pins the
// root it was created against, so it iterates a stable snapshot even if
// the owning tree moves on to a later revision meanwhile.
package cursor

import (
	"bytes"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
)

// frame is one level of the cursor's descent: the page at that level
// and the index currently selected within it (a child index for a
// Node, an entry index for a Leaf).
type frame struct {
	node btreepage.Page
	pos  int
}

// Cursor walks a tree's entries in key order. It holds no lock and
// takes no reference count on the underlying pages beyond the Go
// garbage collector's own: once created against a root, replacing that
// tree's root elsewhere doesn't affect an already-open Cursor, since
// old pages are never mutated, only superseded.
type Cursor struct {
	resolver btreepage.Resolver
	root     btreepage.Page
	stack    []*frame
	valid    bool
	closed   bool
	err      error
}

// New builds a Cursor over root, resolving unresolved children through
// resolver as the walk reaches them.
func New(root btreepage.Page, resolver btreepage.Resolver) *Cursor {
	return &Cursor{root: root, resolver: resolver, stack: make([]*frame, 0, 8)}
}

func keyCount(p btreepage.Page) int {
	if leaf, ok := p.(*btreepage.Leaf); ok {
		return len(leaf.Entries)
	}
	return len(p.(*btreepage.Node).Keys)
}

func findKeyPos(entries []btreepage.LeafEntry, key []byte) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].Key.CompareBytes(key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func childIndex(keys []btreepage.KeyHolder, key []byte) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid].CompareBytes(key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Err returns the first error encountered resolving a child page, if
// any. Once set, the cursor reports Valid() == false and further
// movement is a no-op.
func (c *Cursor) Err() error { return c.err }

// First moves the cursor to the lowest key in the tree.
func (c *Cursor) First() {
	if c.closed || c.err != nil {
		return
	}
	c.reset()
	if c.root == nil {
		return
	}

	node := c.root
	for !node.IsLeaf() {
		n := node.(*btreepage.Node)
		c.stack = append(c.stack, &frame{node: node, pos: 0})
		child, err := n.Children[0].Resolve(c.resolver)
		if err != nil {
			c.err = err
			return
		}
		node = child
	}

	c.stack = append(c.stack, &frame{node: node, pos: 0})
	c.valid = keyCount(node) > 0
}

// Last moves the cursor to the highest key in the tree.
func (c *Cursor) Last() {
	if c.closed || c.err != nil {
		return
	}
	c.reset()
	if c.root == nil {
		return
	}

	node := c.root
	for !node.IsLeaf() {
		n := node.(*btreepage.Node)
		last := len(n.Keys)
		c.stack = append(c.stack, &frame{node: node, pos: last})
		child, err := n.Children[last].Resolve(c.resolver)
		if err != nil {
			c.err = err
			return
		}
		node = child
	}

	count := keyCount(node)
	c.stack = append(c.stack, &frame{node: node, pos: count - 1})
	c.valid = count > 0
}

// Seek moves the cursor to the first entry whose key is >= key.
func (c *Cursor) Seek(key []byte) {
	if c.closed || c.err != nil {
		return
	}
	c.reset()
	if c.root == nil {
		return
	}

	node := c.root
	for !node.IsLeaf() {
		n := node.(*btreepage.Node)
		pos := childIndex(n.Keys, key)
		c.stack = append(c.stack, &frame{node: node, pos: pos})
		child, err := n.Children[pos].Resolve(c.resolver)
		if err != nil {
			c.err = err
			return
		}
		node = child
	}

	leaf := node.(*btreepage.Leaf)
	pos := findKeyPos(leaf.Entries, key)
	c.stack = append(c.stack, &frame{node: node, pos: pos})

	if pos < len(leaf.Entries) {
		c.valid = true
		return
	}
	c.valid = false
	c.moveToNextLeaf()
}

// SeekExact is Seek followed by an exact-match check.
func (c *Cursor) SeekExact(key []byte) bool {
	c.Seek(key)
	if !c.Valid() {
		return false
	}
	return bytes.Equal(c.Key(), key)
}

// Next advances to the following entry in key order.
func (c *Cursor) Next() {
	if !c.valid || len(c.stack) == 0 || c.closed || c.err != nil {
		return
	}
	top := c.stack[len(c.stack)-1]
	top.pos++
	if top.pos < keyCount(top.node) {
		return
	}
	c.moveToNextLeaf()
}

func (c *Cursor) moveToNextLeaf() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}

	for len(c.stack) > 0 {
		parent := c.stack[len(c.stack)-1]
		parent.pos++
		n := parent.node.(*btreepage.Node)

		if parent.pos <= len(n.Keys) {
			child, err := n.Children[parent.pos].Resolve(c.resolver)
			if err != nil {
				c.err = err
				c.valid = false
				return
			}
			node := child
			for !node.IsLeaf() {
				nn := node.(*btreepage.Node)
				c.stack = append(c.stack, &frame{node: node, pos: 0})
				next, err := nn.Children[0].Resolve(c.resolver)
				if err != nil {
					c.err = err
					c.valid = false
					return
				}
				node = next
			}
			c.stack = append(c.stack, &frame{node: node, pos: 0})
			c.valid = keyCount(node) > 0
			return
		}

		c.stack = c.stack[:len(c.stack)-1]
	}
	c.valid = false
}

// Prev moves to the preceding entry in key order.
func (c *Cursor) Prev() {
	if !c.valid || len(c.stack) == 0 || c.closed || c.err != nil {
		return
	}
	top := c.stack[len(c.stack)-1]
	top.pos--
	if top.pos >= 0 {
		return
	}
	c.moveToPrevLeaf()
}

func (c *Cursor) moveToPrevLeaf() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}

	for len(c.stack) > 0 {
		parent := c.stack[len(c.stack)-1]
		parent.pos--
		n := parent.node.(*btreepage.Node)

		if parent.pos >= 0 {
			child, err := n.Children[parent.pos].Resolve(c.resolver)
			if err != nil {
				c.err = err
				c.valid = false
				return
			}
			node := child
			for !node.IsLeaf() {
				nn := node.(*btreepage.Node)
				last := len(nn.Keys)
				c.stack = append(c.stack, &frame{node: node, pos: last})
				next, err := nn.Children[last].Resolve(c.resolver)
				if err != nil {
					c.err = err
					c.valid = false
					return
				}
				node = next
			}
			count := keyCount(node)
			c.stack = append(c.stack, &frame{node: node, pos: count - 1})
			c.valid = count > 0
			return
		}

		c.stack = c.stack[:len(c.stack)-1]
	}
	c.valid = false
}

// Valid reports whether the cursor currently points to an entry.
func (c *Cursor) Valid() bool {
	return c.valid && !c.closed && c.err == nil
}

// Key returns the current entry's key, or nil if the cursor isn't
// valid.
func (c *Cursor) Key() []byte {
	if !c.Valid() || len(c.stack) == 0 {
		return nil
	}
	top := c.stack[len(c.stack)-1]
	leaf := top.node.(*btreepage.Leaf)
	raw := leaf.Entries[top.pos].Key.Bytes()
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// Value returns the current entry's value holder, or the zero holder
// if the cursor isn't valid. A duplicate-carrying slot surfaces as
// ValueInlineArray or ValueSubtreeRef; callers that expect at most one
// value per key can call Single() once they've checked Kind().
func (c *Cursor) Value() btreepage.ValueHolder {
	if !c.Valid() || len(c.stack) == 0 {
		return btreepage.ValueHolder{}
	}
	top := c.stack[len(c.stack)-1]
	leaf := top.node.(*btreepage.Leaf)
	return leaf.Entries[top.pos].Value
}

// Close releases the cursor's position. A Cursor holds no external
// resources (no file descriptors, no locks) so Close only exists for
// symmetry with callers used to closing an iterator explicitly.
func (c *Cursor) Close() {
	c.closed = true
	c.reset()
}

func (c *Cursor) reset() {
	c.stack = c.stack[:0]
	c.valid = false
}
