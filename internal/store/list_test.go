package store

import (
	"errors"
	"testing"

	"github.com/go-test/deep"
)

func TestListPushRangePop(t *testing.T) {
	s := New(0)

	if _, err := s.LPush("L", [][]byte{[]byte("a"), []byte("b"), []byte("c")}); err != nil {
		t.Fatalf("LPush: %s", err)
	}

	got, err := s.LRange("L", 0, -1)
	if err != nil {
		t.Fatalf("LRange: %s", err)
	}
	want := [][]byte{[]byte("c"), []byte("b"), []byte("a")}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("LRange: %v", diff)
	}

	popped, err := s.RPop("L", 1)
	if err != nil || len(popped) != 1 || string(popped[0]) != "a" {
		t.Fatalf("RPop: %v, %s", popped, err)
	}

	n, err := s.LLen("L")
	if err != nil || n != 2 {
		t.Fatalf("LLen: n=%d err=%s", n, err)
	}
}

func TestListIndexOutOfRange(t *testing.T) {
	s := New(0)
	s.RPush("L", [][]byte{[]byte("a")})

	if _, err := s.LIndex("L", 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("LIndex out of range: want ErrOutOfRange, got %v", err)
	}
	if _, err := s.LIndex("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LIndex missing key: want ErrNotFound, got %v", err)
	}
}

func TestListTrim(t *testing.T) {
	s := New(0)
	s.RPush("L", [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")})

	if err := s.LTrim("L", 1, 2); err != nil {
		t.Fatalf("LTrim: %s", err)
	}
	got, _ := s.LRange("L", 0, -1)
	want := [][]byte{[]byte("b"), []byte("c")}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("LRange after trim: %v", diff)
	}
}
