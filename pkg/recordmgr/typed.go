package recordmgr

import (
	"fmt"

	"github.com/dibyang/directory-mavibot/pkg/btreepage"
	"github.com/dibyang/directory-mavibot/pkg/codec"
)

// ErrCodecMismatch is returned by NewTypedHandle when the supplied codec's
// name doesn't match the one recorded in the tree's BTreeInfo at AddTree
// time, catching a caller reopening a file with the wrong codec.
var ErrCodecMismatch = fmt.Errorf("recordmgr: codec name does not match the tree's recorded codec")

// TypedHandle layers a key/value Codec pair over a BTreeHandle so callers
// work with domain values directly instead of pre/post-encoding bytes
// themselves. It adds no storage or lookup behaviour of its own: every
// call encodes through to, or decodes back from, the underlying handle's
// raw []byte API.
type TypedHandle struct {
	handle     *BTreeHandle
	keyCodec   codec.Codec
	valueCodec codec.Codec
}

// NewTypedHandle wraps handle with keyCodec/valueCodec, after checking
// both codecs' names match what the tree was created with.
func NewTypedHandle(handle *BTreeHandle, keyCodec, valueCodec codec.Codec) (*TypedHandle, error) {
	tree, ok := handle.rm.trees[handle.name]
	if !ok {
		return nil, ErrNotManaged
	}
	if tree.info.KeyCodecName != keyCodec.Name() {
		return nil, fmt.Errorf("%w: tree %q wants key codec %q, got %q", ErrCodecMismatch, handle.name, tree.info.KeyCodecName, keyCodec.Name())
	}
	if tree.info.ValueCodecName != valueCodec.Name() {
		return nil, fmt.Errorf("%w: tree %q wants value codec %q, got %q", ErrCodecMismatch, handle.name, tree.info.ValueCodecName, valueCodec.Name())
	}
	return &TypedHandle{handle: handle, keyCodec: keyCodec, valueCodec: valueCodec}, nil
}

// Insert encodes key/value through the tree's codecs and inserts them.
// The previous value, if any, is decoded back through valueCodec.
func (t *TypedHandle) Insert(key, value any) (old any, hadOld bool, err error) {
	k, err := t.keyCodec.Encode(key)
	if err != nil {
		return nil, false, err
	}
	v, err := t.valueCodec.Encode(value)
	if err != nil {
		return nil, false, err
	}
	oldHolder, hadOld, err := t.handle.Insert(k, v)
	if err != nil || !hadOld {
		return nil, hadOld, err
	}
	old, err = t.decodeValue(oldHolder)
	return old, hadOld, err
}

// Delete removes key, decoding both the key's presence and its removed
// value back through the configured codecs.
func (t *TypedHandle) Delete(key any) (value any, found bool, err error) {
	k, err := t.keyCodec.Encode(key)
	if err != nil {
		return nil, false, err
	}
	holder, found, err := t.handle.Delete(k)
	if err != nil || !found {
		return nil, found, err
	}
	value, err = t.decodeValue(holder)
	return value, found, err
}

// Get looks up key and decodes its value, if present.
func (t *TypedHandle) Get(key any) (value any, found bool, err error) {
	k, err := t.keyCodec.Encode(key)
	if err != nil {
		return nil, false, err
	}
	holder, found, err := t.handle.Get(k)
	if err != nil || !found {
		return nil, found, err
	}
	value, err = t.decodeValue(holder)
	return value, found, err
}

// GetAtRevision is Get against an explicit past revision.
func (t *TypedHandle) GetAtRevision(key any, revision uint64) (value any, found bool, err error) {
	k, err := t.keyCodec.Encode(key)
	if err != nil {
		return nil, false, err
	}
	holder, found, err := t.handle.GetAtRevision(k, revision)
	if err != nil || !found {
		return nil, found, err
	}
	value, err = t.decodeValue(holder)
	return value, found, err
}

// decodeValue decodes a leaf slot back to domain value(s): a single
// value for ValueInline, a slice of decoded values for ValueInlineArray
// (the shape a duplicate-allowing tree's slot takes while it holds two
// to inlineDuplicateThreshold values; past that the slot becomes a
// ValueSubtreeRef, which this does not decode).
func (t *TypedHandle) decodeValue(h btreepage.ValueHolder) (any, error) {
	switch h.Kind() {
	case btreepage.ValueInline:
		return t.valueCodec.Decode(h.Single())
	case btreepage.ValueInlineArray:
		raw := h.InlineValues()
		out := make([]any, len(raw))
		for i, b := range raw {
			v, err := t.valueCodec.Decode(b)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("recordmgr: cannot decode value kind %d through a codec", h.Kind())
	}
}
