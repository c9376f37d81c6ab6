package btreepage

// ValueKind distinguishes the three shapes a Leaf slot's values-block can
// take on disk.
type ValueKind int

const (
	// ValueInline holds exactly one value, stored directly in the leaf.
	ValueInline ValueKind = iota
	// ValueInlineArray holds more than one value (duplicates under the
	// inline threshold), all stored directly in the leaf.
	ValueInlineArray
	// ValueSubtreeRef delegates duplicate storage to an internal B+Tree
	// whose keys are the values and whose values are empty.
	ValueSubtreeRef
)

// ValueHolder is a Leaf slot's value-block: either one or more values
// stored inline, or a reference to a duplicate-values subtree once the
// inline count exceeds the tree's threshold.
type ValueHolder struct {
	kind ValueKind

	// inline holds the raw encoded value bytes for ValueInline (len 1)
	// and ValueInlineArray (len >= 1) forms.
	inline [][]byte

	// subtreeCount is the duplicate count recorded alongside a subtree
	// reference, informational only (the subtree itself is authoritative).
	subtreeCount  int64
	subtreeOffset int64
}

// NewInlineValue builds a single-value holder.
func NewInlineValue(v []byte) ValueHolder {
	return ValueHolder{kind: ValueInline, inline: [][]byte{v}}
}

// NewInlineArrayValue builds a holder for duplicate values still under
// the inline threshold.
func NewInlineArrayValue(values [][]byte) ValueHolder {
	return ValueHolder{kind: ValueInlineArray, inline: values}
}

// NewSubtreeRefValue builds a holder pointing at a duplicate-values
// subtree rooted at offset, with count duplicates recorded for bookkeeping.
func NewSubtreeRefValue(offset int64, count int64) ValueHolder {
	return ValueHolder{kind: ValueSubtreeRef, subtreeOffset: offset, subtreeCount: count}
}

// Kind reports which of the three on-disk shapes this holder takes.
func (v ValueHolder) Kind() ValueKind {
	return v.kind
}

// Single returns the one value of an inline, non-duplicate slot. It
// panics if Kind() is not ValueInline; callers must check Kind first.
func (v ValueHolder) Single() []byte {
	if v.kind != ValueInline {
		panic("btreepage: Single called on a non-inline value holder")
	}
	return v.inline[0]
}

// InlineValues returns the values of an inline-array slot. It panics if
// Kind() is not ValueInlineArray.
func (v ValueHolder) InlineValues() [][]byte {
	if v.kind != ValueInlineArray {
		panic("btreepage: InlineValues called on a non-array value holder")
	}
	return v.inline
}

// SubtreeOffset and SubtreeCount describe a ValueSubtreeRef slot. Both
// panic if Kind() is not ValueSubtreeRef.
func (v ValueHolder) SubtreeOffset() int64 {
	if v.kind != ValueSubtreeRef {
		panic("btreepage: SubtreeOffset called on a non-subtree value holder")
	}
	return v.subtreeOffset
}

func (v ValueHolder) SubtreeCount() int64 {
	if v.kind != ValueSubtreeRef {
		panic("btreepage: SubtreeCount called on a non-subtree value holder")
	}
	return v.subtreeCount
}
