package store

import (
	"testing"

	"github.com/go-test/deep"
)

// TestZRangeOrdering checks the sort contract: scores order
// first, ties break on member name ascending.
func TestZRangeOrdering(t *testing.T) {
	s := New(0)

	if _, err := s.ZAdd("z", map[string]float64{"a": 1}); err != nil {
		t.Fatalf("ZAdd a: %s", err)
	}
	if _, err := s.ZAdd("z", map[string]float64{"b": 2}); err != nil {
		t.Fatalf("ZAdd b: %s", err)
	}
	if _, err := s.ZAdd("z", map[string]float64{"c": 1}); err != nil {
		t.Fatalf("ZAdd c: %s", err)
	}

	members, err := s.ZRange("z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %s", err)
	}

	var names []string
	for _, m := range members {
		names = append(names, m.Member)
	}
	want := []string{"a", "c", "b"}
	if diff := deep.Equal(names, want); diff != nil {
		t.Fatalf("ZRange order: %v", diff)
	}
}

func TestZIncrByAndScore(t *testing.T) {
	s := New(0)
	s.ZAdd("z", map[string]float64{"a": 1})

	result, err := s.ZIncrBy("z", "a", 4)
	if err != nil || result != 5 {
		t.Fatalf("ZIncrBy: result=%v err=%s", result, err)
	}

	score, err := s.ZScore("z", "a")
	if err != nil || score != 5 {
		t.Fatalf("ZScore: score=%v err=%s", score, err)
	}
}

func TestZRankMissing(t *testing.T) {
	s := New(0)
	s.ZAdd("z", map[string]float64{"a": 1})

	if _, err := s.ZRank("z", "nope"); err == nil {
		t.Fatalf("ZRank on missing member should fail")
	}
}
