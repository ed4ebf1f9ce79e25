package store

import (
	"sort"
	"testing"

	"github.com/go-test/deep"
)

func TestSetAddRemMembers(t *testing.T) {
	s := New(0)

	n, err := s.SAdd("s", []string{"a", "b", "c"})
	if err != nil || n != 3 {
		t.Fatalf("SAdd: n=%d err=%s", n, err)
	}

	members, err := s.SMembers("s")
	if err != nil {
		t.Fatalf("SMembers: %s", err)
	}
	sort.Strings(members)
	if diff := deep.Equal(members, []string{"a", "b", "c"}); diff != nil {
		t.Fatalf("SMembers: %v", diff)
	}

	ok, err := s.SIsMember("s", "a")
	if err != nil || !ok {
		t.Fatalf("SIsMember: ok=%v err=%s", ok, err)
	}

	removed, err := s.SRem("s", []string{"a"})
	if err != nil || removed != 1 {
		t.Fatalf("SRem: removed=%d err=%s", removed, err)
	}
}

// TestSetAlgebra checks that SINTER, SUNION and SDIFF obey their
// algebraic definitions, including missing-key-as-empty-set handling.
func TestSetAlgebra(t *testing.T) {
	s := New(0)
	s.SAdd("a", []string{"x", "y", "z"})
	s.SAdd("b", []string{"y", "z", "w"})

	inter, err := s.SInter([]string{"a", "b"})
	if err != nil {
		t.Fatalf("SInter: %s", err)
	}
	sort.Strings(inter)
	if diff := deep.Equal(inter, []string{"y", "z"}); diff != nil {
		t.Fatalf("SInter: %v", diff)
	}

	union, err := s.SUnion([]string{"a", "b"})
	if err != nil {
		t.Fatalf("SUnion: %s", err)
	}
	sort.Strings(union)
	if diff := deep.Equal(union, []string{"w", "x", "y", "z"}); diff != nil {
		t.Fatalf("SUnion: %v", diff)
	}

	diffResult, err := s.SDiff([]string{"a", "b"})
	if err != nil {
		t.Fatalf("SDiff: %s", err)
	}
	sort.Strings(diffResult)
	if d := deep.Equal(diffResult, []string{"x"}); d != nil {
		t.Fatalf("SDiff: %v", d)
	}
}
