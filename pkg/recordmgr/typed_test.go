package recordmgr

import (
	"errors"
	"testing"

	"github.com/dibyang/directory-mavibot/pkg/codec"
)

func TestTypedHandleInsertGetDelete(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, codec.Uint64BigEndian{}.Name(), codec.Bytes{}.Name(), false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	th, err := NewTypedHandle(h, codec.Uint64BigEndian{}, codec.Bytes{})
	if err != nil {
		t.Fatalf("NewTypedHandle: %v", err)
	}

	if _, had, err := th.Insert(uint64(10), []byte("a")); err != nil || had {
		t.Fatalf("Insert(10): had=%v err=%v", had, err)
	}

	v, found, err := th.Get(uint64(10))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || string(v.([]byte)) != "a" {
		t.Fatalf("Get(10) = (%v, %v), want (\"a\", true)", v, found)
	}

	old, had, err := th.Insert(uint64(10), []byte("b"))
	if err != nil {
		t.Fatalf("Insert existing key: %v", err)
	}
	if !had || string(old.([]byte)) != "a" {
		t.Fatalf("Insert existing key = (%v, %v), want (\"a\", true)", old, had)
	}

	removed, found, err := th.Delete(uint64(10))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !found || string(removed.([]byte)) != "a" {
		t.Fatalf("Delete(10) = (%v, %v), want (\"a\", true)", removed, found)
	}

	if _, found, err := th.Get(uint64(10)); err != nil || found {
		t.Fatalf("Get after delete: found=%v err=%v", found, err)
	}
}

func TestNewTypedHandleRejectsCodecMismatch(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("widgets", 4, codec.Uint64BigEndian{}.Name(), codec.Bytes{}.Name(), false)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}

	_, err = NewTypedHandle(h, codec.Bytes{}, codec.Bytes{})
	if !errors.Is(err, ErrCodecMismatch) {
		t.Fatalf("NewTypedHandle with wrong key codec: got %v, want %v", err, ErrCodecMismatch)
	}
}

func TestTypedHandleDuplicateValues(t *testing.T) {
	rm, _ := openTestManager(t, 128)

	h, err := rm.AddTree("tags", 4, codec.Uint64BigEndian{}.Name(), codec.Bytes{}.Name(), true)
	if err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	th, err := NewTypedHandle(h, codec.Uint64BigEndian{}, codec.Bytes{})
	if err != nil {
		t.Fatalf("NewTypedHandle: %v", err)
	}

	if _, _, err := th.Insert(uint64(1), []byte("x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, _, err := th.Insert(uint64(1), []byte("y")); err != nil {
		t.Fatalf("Insert duplicate: %v", err)
	}

	v, found, err := th.Get(uint64(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatalf("expected key 1 to be found")
	}
	values, ok := v.([]any)
	if !ok || len(values) != 2 {
		t.Fatalf("Get(1) = %v, want a 2-element []any", v)
	}
}
