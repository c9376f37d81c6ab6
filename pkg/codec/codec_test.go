package codec

import (
	"bytes"
	"testing"
)

func TestBytesRoundTrip(t *testing.T) {
	var c Bytes
	in := []byte("hello")
	enc, err := c.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dec, err := c.Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(dec.([]byte), in) {
		t.Fatalf("round trip mismatch: got %v want %v", dec, in)
	}
}

func TestBytesWrongType(t *testing.T) {
	var c Bytes
	if _, err := c.Encode(42); err == nil {
		t.Fatalf("expected type error encoding an int")
	}
}

func TestUint64BigEndianRoundTrip(t *testing.T) {
	var c Uint64BigEndian
	for _, v := range []uint64{0, 1, 255, 256, 1 << 40} {
		enc, err := c.Encode(v)
		if err != nil {
			t.Fatalf("encode(%d): %v", v, err)
		}
		dec, err := c.Decode(enc)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if dec.(uint64) != v {
			t.Fatalf("round trip(%d) = %d", v, dec)
		}
	}
}

func TestUint64BigEndianPreservesOrder(t *testing.T) {
	var c Uint64BigEndian
	small, _ := c.Encode(uint64(10))
	big, _ := c.Encode(uint64(300))
	if bytes.Compare(small, big) >= 0 {
		t.Fatalf("expected encode(10) < encode(300) byte-wise")
	}
}

func TestUint64BigEndianWrongLength(t *testing.T) {
	var c Uint64BigEndian
	if _, err := c.Decode([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error decoding a short buffer")
	}
}
