package store

import "testing"

// TestSetBitGetBitBitCount walks a bit through set, read, count, clear.
func TestSetBitGetBitBitCount(t *testing.T) {
	s := New(0)

	prev, err := s.SetBit("b", 7, 1)
	if err != nil || prev != 0 {
		t.Fatalf("SetBit: prev=%d err=%s", prev, err)
	}

	v, err := s.GetBit("b", 7)
	if err != nil || v != 1 {
		t.Fatalf("GetBit: v=%d err=%s", v, err)
	}

	count, err := s.BitCount("b", nil)
	if err != nil || count != 1 {
		t.Fatalf("BitCount: count=%d err=%s", count, err)
	}

	prev, err = s.SetBit("b", 7, 0)
	if err != nil || prev != 1 {
		t.Fatalf("SetBit clear: prev=%d err=%s", prev, err)
	}

	count, err = s.BitCount("b", nil)
	if err != nil || count != 0 {
		t.Fatalf("BitCount after clear: count=%d err=%s", count, err)
	}
}

func TestBitCountSharedWithString(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("\xff"), SetOptions{})

	count, err := s.BitCount("k", nil)
	if err != nil || count != 8 {
		t.Fatalf("BitCount on a string key: count=%d err=%s", count, err)
	}
}
