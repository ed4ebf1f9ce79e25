package store

import (
	"errors"
	"testing"
)

func TestHashSetGetDel(t *testing.T) {
	s := New(0)

	n, err := s.HSet("h", map[string][]byte{"f1": []byte("v1"), "f2": []byte("v2")})
	if err != nil || n != 2 {
		t.Fatalf("HSet: n=%d err=%s", n, err)
	}

	v, err := s.HGet("h", "f1")
	if err != nil || string(v) != "v1" {
		t.Fatalf("HGet: v=%s err=%s", v, err)
	}

	if _, err := s.HGet("h", "missing-field"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("HGet missing field: want ErrNotFound, got %v", err)
	}
	if _, err := s.HGet("missing-key", "f1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("HGet missing key: want ErrNotFound, got %v", err)
	}

	removed, err := s.HDel("h", []string{"f1"})
	if err != nil || removed != 1 {
		t.Fatalf("HDel: removed=%d err=%s", removed, err)
	}

	length, err := s.HLen("h")
	if err != nil || length != 1 {
		t.Fatalf("HLen: n=%d err=%s", length, err)
	}
}
