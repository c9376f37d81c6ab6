package btreealgo

import (
	"bytes"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
)

// DeleteKind tags which variant a DeleteResult carries.
type DeleteKind int

const (
	// NotPresent: key was not found; nothing changed.
	NotPresent DeleteKind = iota
	// Removed: target page still meets minimum occupancy after removal.
	Removed
	// BorrowedFromLeft: target borrowed one entry/child from its left
	// sibling; Sibling is the sibling's new copy and SeparatorKey is the
	// updated separator the parent must install.
	BorrowedFromLeft
	// BorrowedFromRight: symmetric with BorrowedFromLeft, from the right.
	BorrowedFromRight
	// Merged: target was concatenated with a sibling into Page; the
	// parent loses a child and a key. MergedWithRight tells the parent
	// which side collapsed into the survivor.
	Merged
)

// DeleteResult is the sum type Delete/deleteLeaf/deleteNode return.
type DeleteResult struct {
	Kind DeleteKind

	RemovedKey   []byte
	RemovedValue btreepage.ValueHolder

	Page            btreepage.Page // Removed, Merged
	Sibling         btreepage.Page // BorrowedFromLeft/Right
	SeparatorKey    btreepage.KeyHolder
	MergedWithRight bool

	// NewFirstKey is the new smallest key of Page, set only on Removed
	// when Page still has entries/children left. The caller's parent
	// compares this against its bordering separator (the one pointing at
	// this subtree) and rewrites it when the separator equalled the
	// deleted key, keeping "separator == smallest key of right subtree"
	// intact after the smallest key of a subtree is deleted.
	NewFirstKey *btreepage.KeyHolder
}

// Delete removes key from the subtree rooted at page, which is one of
// the (up to two) children of the caller's parent. leftSibling/
// rightSibling are that parent's adjacent children, already resolved, or
// nil if page is the outermost child on that side (or the root, in which
// case both are nil). leftSeparator/rightSeparator are the parent's
// separator keys bordering page on each side, required to rotate a key
// through the parent during a Node-level borrow or merge.
func Delete(tx Transaction, m int, revision uint64, page btreepage.Page, key []byte,
	leftSibling, rightSibling btreepage.Page,
	leftSeparator, rightSeparator *btreepage.KeyHolder) (DeleteResult, error) {
	switch p := page.(type) {
	case *btreepage.Leaf:
		return deleteLeaf(tx, m, revision, p, key, leftSibling, rightSibling)
	case *btreepage.Node:
		return deleteNode(tx, m, revision, p, key, leftSibling, rightSibling, leftSeparator, rightSeparator)
	default:
		return DeleteResult{}, ErrUnknownPageKind
	}
}

// DeleteRoot is the entry point RecordManager calls: it runs Delete with
// no siblings (the root has none) and handles the root shrinking by one
// level when it is a Node that lost its last key.
func DeleteRoot(tx Transaction, m int, revision uint64, root btreepage.Page, key []byte) (btreepage.Page, btreepage.ValueHolder, bool, error) {
	result, err := Delete(tx, m, revision, root, key, nil, nil, nil, nil)
	if err != nil {
		return nil, btreepage.ValueHolder{}, false, err
	}
	switch result.Kind {
	case NotPresent:
		return root, btreepage.ValueHolder{}, false, nil
	case Removed:
		newRoot := result.Page
		if node, ok := newRoot.(*btreepage.Node); ok && len(node.Keys) == 0 {
			child, err := node.Children[0].Resolve(tx)
			if err != nil {
				return nil, btreepage.ValueHolder{}, false, err
			}
			tx.Shadow(node.PageOffset(), node.PageLastOffset())
			newRoot = child
		}
		return newRoot, result.RemovedValue, true, nil
	default:
		return nil, btreepage.ValueHolder{}, false, ErrUnexpectedRootResult
	}
}

func deleteLeaf(tx Transaction, m int, revision uint64, leaf *btreepage.Leaf, key []byte, leftSibling, rightSibling btreepage.Page) (DeleteResult, error) {
	idx, found := findKey(leaf.Entries, key)
	if !found {
		return DeleteResult{Kind: NotPresent}, nil
	}
	removedValue := leaf.Entries[idx].Value
	entries := deleteAt(append([]btreepage.LeafEntry{}, leaf.Entries...), idx)

	tx.Shadow(leaf.PageOffset(), leaf.PageLastOffset())

	min := minOccupancy(m)
	isRoot := leftSibling == nil && rightSibling == nil

	if len(entries) >= min || isRoot {
		newLeaf := btreepage.NewLeaf(revision, entries)
		if err := tx.Flush(newLeaf); err != nil {
			return DeleteResult{}, err
		}
		var newFirstKey *btreepage.KeyHolder
		if len(entries) > 0 {
			newFirstKey = &entries[0].Key
		}
		return DeleteResult{Kind: Removed, Page: newLeaf, RemovedKey: key, RemovedValue: removedValue, NewFirstKey: newFirstKey}, nil
	}

	if rightLeaf, ok := rightSibling.(*btreepage.Leaf); ok && len(rightLeaf.Entries) > min {
		borrowed := rightLeaf.Entries[0]
		newEntries := append(append([]btreepage.LeafEntry{}, entries...), borrowed)
		newRightEntries := append([]btreepage.LeafEntry{}, rightLeaf.Entries[1:]...)

		tx.Shadow(rightLeaf.PageOffset(), rightLeaf.PageLastOffset())
		newLeaf := btreepage.NewLeaf(revision, newEntries)
		newRight := btreepage.NewLeaf(revision, newRightEntries)
		if err := tx.Flush(newLeaf); err != nil {
			return DeleteResult{}, err
		}
		if err := tx.Flush(newRight); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{
			Kind: BorrowedFromRight, Page: newLeaf, Sibling: newRight,
			SeparatorKey: newRight.Entries[0].Key,
			RemovedKey:   key, RemovedValue: removedValue,
		}, nil
	}

	if leftLeaf, ok := leftSibling.(*btreepage.Leaf); ok && len(leftLeaf.Entries) > min {
		lastIdx := len(leftLeaf.Entries) - 1
		borrowed := leftLeaf.Entries[lastIdx]
		newLeftEntries := append([]btreepage.LeafEntry{}, leftLeaf.Entries[:lastIdx]...)
		newEntries := append([]btreepage.LeafEntry{borrowed}, entries...)

		tx.Shadow(leftLeaf.PageOffset(), leftLeaf.PageLastOffset())
		newLeft := btreepage.NewLeaf(revision, newLeftEntries)
		newLeaf := btreepage.NewLeaf(revision, newEntries)
		if err := tx.Flush(newLeft); err != nil {
			return DeleteResult{}, err
		}
		if err := tx.Flush(newLeaf); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{
			Kind: BorrowedFromLeft, Page: newLeaf, Sibling: newLeft,
			SeparatorKey: newLeaf.Entries[0].Key,
			RemovedKey:   key, RemovedValue: removedValue,
		}, nil
	}

	if rightLeaf, ok := rightSibling.(*btreepage.Leaf); ok {
		tx.Shadow(rightLeaf.PageOffset(), rightLeaf.PageLastOffset())
		merged := append(append([]btreepage.LeafEntry{}, entries...), rightLeaf.Entries...)
		newLeaf := btreepage.NewLeaf(revision, merged)
		if err := tx.Flush(newLeaf); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Kind: Merged, Page: newLeaf, MergedWithRight: true, RemovedKey: key, RemovedValue: removedValue}, nil
	}

	leftLeaf := leftSibling.(*btreepage.Leaf)
	tx.Shadow(leftLeaf.PageOffset(), leftLeaf.PageLastOffset())
	merged := append(append([]btreepage.LeafEntry{}, leftLeaf.Entries...), entries...)
	newLeaf := btreepage.NewLeaf(revision, merged)
	if err := tx.Flush(newLeaf); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Kind: Merged, Page: newLeaf, MergedWithRight: false, RemovedKey: key, RemovedValue: removedValue}, nil
}

func deleteNode(tx Transaction, m int, revision uint64, node *btreepage.Node, key []byte,
	leftSibling, rightSibling btreepage.Page,
	leftSeparator, rightSeparator *btreepage.KeyHolder) (DeleteResult, error) {

	idx := childIndex(node.Keys, key)
	child, err := node.Children[idx].Resolve(tx)
	if err != nil {
		return DeleteResult{}, err
	}

	var childLeft, childRight btreepage.Page
	var childLeftSep, childRightSep *btreepage.KeyHolder
	if idx > 0 {
		childLeft, err = node.Children[idx-1].Resolve(tx)
		if err != nil {
			return DeleteResult{}, err
		}
		k := node.Keys[idx-1]
		childLeftSep = &k
	}
	if idx+1 < len(node.Children) {
		childRight, err = node.Children[idx+1].Resolve(tx)
		if err != nil {
			return DeleteResult{}, err
		}
		k := node.Keys[idx]
		childRightSep = &k
	}

	childResult, err := Delete(tx, m, revision, child, key, childLeft, childRight, childLeftSep, childRightSep)
	if err != nil {
		return DeleteResult{}, err
	}
	if childResult.Kind == NotPresent {
		return DeleteResult{Kind: NotPresent}, nil
	}

	tx.Shadow(node.PageOffset(), node.PageLastOffset())
	keys := append([]btreepage.KeyHolder{}, node.Keys...)
	children := append([]*btreepage.ChildHolder{}, node.Children...)

	switch childResult.Kind {
	case Removed:
		children[idx] = btreepage.NewResolvedChild(childResult.Page)
		if idx > 0 && childResult.NewFirstKey != nil && bytes.Equal(keys[idx-1].Bytes(), key) {
			keys[idx-1] = *childResult.NewFirstKey
		}
	case BorrowedFromLeft:
		children[idx-1] = btreepage.NewResolvedChild(childResult.Sibling)
		children[idx] = btreepage.NewResolvedChild(childResult.Page)
		keys[idx-1] = childResult.SeparatorKey
	case BorrowedFromRight:
		children[idx] = btreepage.NewResolvedChild(childResult.Page)
		children[idx+1] = btreepage.NewResolvedChild(childResult.Sibling)
		keys[idx] = childResult.SeparatorKey
	case Merged:
		if childResult.MergedWithRight {
			children[idx] = btreepage.NewResolvedChild(childResult.Page)
			children = deleteAt(children, idx+1)
			keys = deleteAt(keys, idx)
		} else {
			children[idx-1] = btreepage.NewResolvedChild(childResult.Page)
			children = deleteAt(children, idx)
			keys = deleteAt(keys, idx-1)
		}
	}

	min := minOccupancy(m)
	isRoot := leftSibling == nil && rightSibling == nil

	if len(children) >= min || isRoot {
		newNode := btreepage.NewNode(revision, keys, children)
		if err := tx.Flush(newNode); err != nil {
			return DeleteResult{}, err
		}
		var newFirstKey *btreepage.KeyHolder
		if idx == 0 {
			// This node's own smallest key is children[0]'s smallest key;
			// since child 0 is the one we just recursed into, its new
			// first key (if any) is still this node's new first key too,
			// so it keeps propagating up to a grandparent's separator.
			newFirstKey = childResult.NewFirstKey
		}
		return DeleteResult{Kind: Removed, Page: newNode, RemovedKey: childResult.RemovedKey, RemovedValue: childResult.RemovedValue, NewFirstKey: newFirstKey}, nil
	}

	if rightNode, ok := rightSibling.(*btreepage.Node); ok && len(rightNode.Children) > min {
		newKeys := append(append([]btreepage.KeyHolder{}, keys...), *rightSeparator)
		newChildren := append(append([]*btreepage.ChildHolder{}, children...), rightNode.Children[0])
		newRightKeys := append([]btreepage.KeyHolder{}, rightNode.Keys[1:]...)
		newRightChildren := append([]*btreepage.ChildHolder{}, rightNode.Children[1:]...)
		newSeparator := rightNode.Keys[0]

		tx.Shadow(rightNode.PageOffset(), rightNode.PageLastOffset())
		newNode := btreepage.NewNode(revision, newKeys, newChildren)
		newRight := btreepage.NewNode(revision, newRightKeys, newRightChildren)
		if err := tx.Flush(newNode); err != nil {
			return DeleteResult{}, err
		}
		if err := tx.Flush(newRight); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{
			Kind: BorrowedFromRight, Page: newNode, Sibling: newRight, SeparatorKey: newSeparator,
			RemovedKey: childResult.RemovedKey, RemovedValue: childResult.RemovedValue,
		}, nil
	}

	if leftNode, ok := leftSibling.(*btreepage.Node); ok && len(leftNode.Children) > min {
		lastChildIdx := len(leftNode.Children) - 1
		lastKeyIdx := len(leftNode.Keys) - 1
		borrowedChild := leftNode.Children[lastChildIdx]
		newSeparator := leftNode.Keys[lastKeyIdx]

		newKeys := append([]btreepage.KeyHolder{*leftSeparator}, keys...)
		newChildren := append([]*btreepage.ChildHolder{borrowedChild}, children...)
		newLeftKeys := append([]btreepage.KeyHolder{}, leftNode.Keys[:lastKeyIdx]...)
		newLeftChildren := append([]*btreepage.ChildHolder{}, leftNode.Children[:lastChildIdx]...)

		tx.Shadow(leftNode.PageOffset(), leftNode.PageLastOffset())
		newNode := btreepage.NewNode(revision, newKeys, newChildren)
		newLeft := btreepage.NewNode(revision, newLeftKeys, newLeftChildren)
		if err := tx.Flush(newLeft); err != nil {
			return DeleteResult{}, err
		}
		if err := tx.Flush(newNode); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{
			Kind: BorrowedFromLeft, Page: newNode, Sibling: newLeft, SeparatorKey: newSeparator,
			RemovedKey: childResult.RemovedKey, RemovedValue: childResult.RemovedValue,
		}, nil
	}

	if rightNode, ok := rightSibling.(*btreepage.Node); ok {
		tx.Shadow(rightNode.PageOffset(), rightNode.PageLastOffset())
		mergedKeys := append(append([]btreepage.KeyHolder{}, keys...), *rightSeparator)
		mergedKeys = append(mergedKeys, rightNode.Keys...)
		mergedChildren := append(append([]*btreepage.ChildHolder{}, children...), rightNode.Children...)
		merged := btreepage.NewNode(revision, mergedKeys, mergedChildren)
		if err := tx.Flush(merged); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Kind: Merged, Page: merged, MergedWithRight: true, RemovedKey: childResult.RemovedKey, RemovedValue: childResult.RemovedValue}, nil
	}

	leftNode := leftSibling.(*btreepage.Node)
	tx.Shadow(leftNode.PageOffset(), leftNode.PageLastOffset())
	mergedKeys := append(append([]btreepage.KeyHolder{}, leftNode.Keys...), *leftSeparator)
	mergedKeys = append(mergedKeys, keys...)
	mergedChildren := append(append([]*btreepage.ChildHolder{}, leftNode.Children...), children...)
	merged := btreepage.NewNode(revision, mergedKeys, mergedChildren)
	if err := tx.Flush(merged); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Kind: Merged, Page: merged, MergedWithRight: false, RemovedKey: childResult.RemovedKey, RemovedValue: childResult.RemovedValue}, nil
}
