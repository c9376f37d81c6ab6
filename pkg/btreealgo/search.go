package btreealgo

import (
	"bytes"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
)

// Search walks from root down to a Leaf, resolving unresolved children
// through r as needed, and returns the value stored for key.
func Search(r btreepage.Resolver, root btreepage.Page, key []byte) (btreepage.ValueHolder, bool, error) {
	page := root
	for {
		switch p := page.(type) {
		case *btreepage.Leaf:
			idx, ok := findKey(p.Entries, key)
			if !ok {
				return btreepage.ValueHolder{}, false, nil
			}
			return p.Entries[idx].Value, true, nil
		case *btreepage.Node:
			idx := childIndex(p.Keys, key)
			child, err := p.Children[idx].Resolve(r)
			if err != nil {
				return btreepage.ValueHolder{}, false, err
			}
			page = child
		default:
			return btreepage.ValueHolder{}, false, ErrUnknownPageKind
		}
	}
}

// findKey binary-searches a leaf's entries for key, returning its index
// and true if present, or the insertion point and false otherwise.
func findKey(entries []btreepage.LeafEntry, key []byte) (int, bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		c := bytes.Compare(entries[mid].Key.Bytes(), key)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

// childIndex returns the index of the child that covers key, given a
// Node's separator keys: Children[i] holds everything < Keys[i] for
// i < len(Keys); Children[len(Keys)] holds everything >= the last key.
func childIndex(keys []btreepage.KeyHolder, key []byte) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(keys[mid].Bytes(), key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
