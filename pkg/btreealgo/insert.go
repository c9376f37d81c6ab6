package btreealgo

import "github.com/dibyang/directory-mavibot/pkg/btreepage"

// InsertKind tags which variant an InsertResult carries.
type InsertKind int

const (
	// ExistingValue: key was already present and duplicates are
	// disallowed; the tree is unchanged.
	ExistingValue InsertKind = iota
	// Modified: the target page was copied into a new revision holding
	// the new key/value; the subtree root is replaced by Page.
	Modified
	// Split: the target page was full; PromotedKey separates LeftPage
	// from RightPage and must be inserted into the parent.
	Split
)

// InsertResult is the sum type Insert/insertLeaf/insertNode return.
type InsertResult struct {
	Kind InsertKind

	OldValue    btreepage.ValueHolder
	HasOldValue bool

	// Modified
	Page btreepage.Page

	// Split
	PromotedKey btreepage.KeyHolder
	LeftPage    btreepage.Page
	RightPage   btreepage.Page
}

// Insert descends from root to find key's leaf, copying every touched
// page into the given revision, and inserts (key, value). If key is
// already present and allowDuplicates is false, returns ExistingValue
// without modifying anything. If allowDuplicates is true, the existing
// value grows into (or further extends) an inline array, escalating to a
// duplicate-values subtree past inlineDuplicateThreshold.
func Insert(tx Transaction, m int, revision uint64, root btreepage.Page, key, value []byte, allowDuplicates bool) (InsertResult, error) {
	switch p := root.(type) {
	case *btreepage.Leaf:
		return insertLeaf(tx, m, revision, p, key, value, allowDuplicates)
	case *btreepage.Node:
		return insertNode(tx, m, revision, p, key, value, allowDuplicates)
	default:
		return InsertResult{}, ErrUnknownPageKind
	}
}

// InsertRoot is the entry point RecordManager calls: it runs Insert and,
// if the root itself split, builds the new height+1 root Node.
func InsertRoot(tx Transaction, m int, revision uint64, root btreepage.Page, key, value []byte, allowDuplicates bool) (btreepage.Page, btreepage.ValueHolder, bool, error) {
	result, err := Insert(tx, m, revision, root, key, value, allowDuplicates)
	if err != nil {
		return nil, btreepage.ValueHolder{}, false, err
	}
	switch result.Kind {
	case ExistingValue:
		return root, result.OldValue, true, nil
	case Modified:
		return result.Page, result.OldValue, result.HasOldValue, nil
	case Split:
		newRoot := btreepage.NewNode(revision,
			[]btreepage.KeyHolder{result.PromotedKey},
			[]*btreepage.ChildHolder{
				btreepage.NewResolvedChild(result.LeftPage),
				btreepage.NewResolvedChild(result.RightPage),
			})
		if err := tx.Flush(newRoot); err != nil {
			return nil, btreepage.ValueHolder{}, false, err
		}
		return newRoot, result.OldValue, result.HasOldValue, nil
	default:
		return nil, btreepage.ValueHolder{}, false, ErrUnknownPageKind
	}
}

func insertLeaf(tx Transaction, m int, revision uint64, leaf *btreepage.Leaf, key, value []byte, allowDuplicates bool) (InsertResult, error) {
	idx, found := findKey(leaf.Entries, key)
	entries := append([]btreepage.LeafEntry{}, leaf.Entries...)

	var oldValue btreepage.ValueHolder
	hasOld := false

	if found {
		old := entries[idx]
		if !allowDuplicates {
			return InsertResult{Kind: ExistingValue, OldValue: old.Value, HasOldValue: true}, nil
		}
		merged, err := mergeDuplicate(tx, m, revision, old.Value, value)
		if err != nil {
			return InsertResult{}, err
		}
		entries[idx] = btreepage.LeafEntry{Key: old.Key, Value: merged}
		oldValue, hasOld = old.Value, true
	} else {
		entries = insertAt(entries, idx, btreepage.LeafEntry{
			Key:   btreepage.NewKeyHolder(key),
			Value: btreepage.NewInlineValue(value),
		})
	}

	tx.Shadow(leaf.PageOffset(), leaf.PageLastOffset())

	if len(entries) <= m {
		newLeaf := btreepage.NewLeaf(revision, entries)
		if err := tx.Flush(newLeaf); err != nil {
			return InsertResult{}, err
		}
		return InsertResult{Kind: Modified, Page: newLeaf, OldValue: oldValue, HasOldValue: hasOld}, nil
	}

	// Split: divide evenly; when the post-insert count is odd, the extra
	// element goes to the right half (keeping the promoted separator low
	// and the right leaf the one that absorbs growth). The right leaf's
	// first key is promoted while remaining in the right leaf.
	leftCount := len(entries) / 2
	leftLeaf := btreepage.NewLeaf(revision, append([]btreepage.LeafEntry{}, entries[:leftCount]...))
	rightLeaf := btreepage.NewLeaf(revision, append([]btreepage.LeafEntry{}, entries[leftCount:]...))
	if err := tx.Flush(leftLeaf); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Flush(rightLeaf); err != nil {
		return InsertResult{}, err
	}

	return InsertResult{
		Kind:        Split,
		OldValue:    oldValue,
		HasOldValue: hasOld,
		PromotedKey: rightLeaf.Entries[0].Key,
		LeftPage:    leftLeaf,
		RightPage:   rightLeaf,
	}, nil
}

// inlineDuplicateThreshold is the most values a duplicates-allowing
// Leaf slot stores inline before delegating to a duplicate-values
// subtree; the (count+1)th duplicate for a key escalates the slot from
// ValueInlineArray to ValueSubtreeRef.
const inlineDuplicateThreshold = 4

// mergeDuplicate folds a newly inserted value into an existing slot's
// value holder for a duplicates-allowed tree: it grows an inline array
// while the duplicate count stays at or under inlineDuplicateThreshold,
// and escalates to (or grows) a ValueSubtreeRef once it doesn't.
func mergeDuplicate(tx Transaction, m int, revision uint64, existing btreepage.ValueHolder, value []byte) (btreepage.ValueHolder, error) {
	switch existing.Kind() {
	case btreepage.ValueInline:
		return mergeInlineValues(tx, m, revision, [][]byte{existing.Single()}, value)
	case btreepage.ValueInlineArray:
		return mergeInlineValues(tx, m, revision, existing.InlineValues(), value)
	case btreepage.ValueSubtreeRef:
		return growDupSubtree(tx, m, revision, existing, value)
	default:
		return existing, nil
	}
}

// mergeInlineValues appends value to values and either stays inline or
// escalates to a fresh duplicate-values subtree, depending on the count.
func mergeInlineValues(tx Transaction, m int, revision uint64, values [][]byte, value []byte) (btreepage.ValueHolder, error) {
	grown := append(append([][]byte{}, values...), value)
	if len(grown) <= inlineDuplicateThreshold {
		return btreepage.NewInlineArrayValue(grown), nil
	}
	root, count, err := buildDupSubtree(tx, m, revision, grown)
	if err != nil {
		return btreepage.ValueHolder{}, err
	}
	return btreepage.NewSubtreeRefValue(root.PageOffset(), count), nil
}

// buildDupSubtree inserts every one of values as a key into a freshly
// built B+Tree with empty leaf values, per the duplicate-values subtree
// layout (keys are the values, values are empty). Returns the resulting
// root and the number of distinct values it holds.
func buildDupSubtree(tx Transaction, m int, revision uint64, values [][]byte) (btreepage.Page, int64, error) {
	var root btreepage.Page = btreepage.NewLeaf(revision, nil)
	var count int64
	for _, v := range values {
		newRoot, _, hadOld, err := InsertRoot(tx, m, revision, root, v, nil, false)
		if err != nil {
			return nil, 0, err
		}
		root = newRoot
		if !hadOld {
			count++
		}
	}
	return root, count, nil
}

// growDupSubtree inserts value as a new key into an already-escalated
// duplicate-values subtree, leaving the count unchanged if value is
// already a member (inserting the same duplicate value twice for one
// key collapses, since the subtree's keys are the values themselves).
func growDupSubtree(tx Transaction, m int, revision uint64, existing btreepage.ValueHolder, value []byte) (btreepage.ValueHolder, error) {
	root, err := tx.ResolvePage(existing.SubtreeOffset(), existing.SubtreeOffset())
	if err != nil {
		return btreepage.ValueHolder{}, err
	}
	newRoot, _, hadOld, err := InsertRoot(tx, m, revision, root, value, nil, false)
	if err != nil {
		return btreepage.ValueHolder{}, err
	}
	count := existing.SubtreeCount()
	if !hadOld {
		count++
	}
	return btreepage.NewSubtreeRefValue(newRoot.PageOffset(), count), nil
}

func insertNode(tx Transaction, m int, revision uint64, node *btreepage.Node, key, value []byte, allowDuplicates bool) (InsertResult, error) {
	idx := childIndex(node.Keys, key)
	child, err := node.Children[idx].Resolve(tx)
	if err != nil {
		return InsertResult{}, err
	}

	childResult, err := Insert(tx, m, revision, child, key, value, allowDuplicates)
	if err != nil {
		return InsertResult{}, err
	}
	if childResult.Kind == ExistingValue {
		return childResult, nil
	}

	tx.Shadow(node.PageOffset(), node.PageLastOffset())
	keys := append([]btreepage.KeyHolder{}, node.Keys...)
	children := append([]*btreepage.ChildHolder{}, node.Children...)

	if childResult.Kind == Modified {
		children[idx] = btreepage.NewResolvedChild(childResult.Page)
		newNode := btreepage.NewNode(revision, keys, children)
		if err := tx.Flush(newNode); err != nil {
			return InsertResult{}, err
		}
		return InsertResult{Kind: Modified, Page: newNode, OldValue: childResult.OldValue, HasOldValue: childResult.HasOldValue}, nil
	}

	// childResult.Kind == Split: insert the promoted key and new right
	// child at idx/idx+1.
	keys = insertAt(keys, idx, childResult.PromotedKey)
	children[idx] = btreepage.NewResolvedChild(childResult.LeftPage)
	children = insertAt(children, idx+1, btreepage.NewResolvedChild(childResult.RightPage))

	if len(children) <= m {
		newNode := btreepage.NewNode(revision, keys, children)
		if err := tx.Flush(newNode); err != nil {
			return InsertResult{}, err
		}
		return InsertResult{Kind: Modified, Page: newNode, OldValue: childResult.OldValue, HasOldValue: childResult.HasOldValue}, nil
	}

	// This node is now full too: split it, promoting (not retaining) the
	// median key.
	mid := len(keys) / 2
	leftNode := btreepage.NewNode(revision,
		append([]btreepage.KeyHolder{}, keys[:mid]...),
		append([]*btreepage.ChildHolder{}, children[:mid+1]...))
	rightNode := btreepage.NewNode(revision,
		append([]btreepage.KeyHolder{}, keys[mid+1:]...),
		append([]*btreepage.ChildHolder{}, children[mid+1:]...))
	if err := tx.Flush(leftNode); err != nil {
		return InsertResult{}, err
	}
	if err := tx.Flush(rightNode); err != nil {
		return InsertResult{}, err
	}

	return InsertResult{
		Kind:        Split,
		OldValue:    childResult.OldValue,
		HasOldValue: childResult.HasOldValue,
		PromotedKey: keys[mid],
		LeftPage:    leftNode,
		RightPage:   rightNode,
	}, nil
}
