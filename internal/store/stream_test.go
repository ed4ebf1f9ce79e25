package store

import "testing"

// TestStreamIDMonotonic checks that a repeated explicit id fails, and an
// auto-assigned id sorts strictly after it.
func TestStreamIDMonotonic(t *testing.T) {
	s := New(0)

	id := StreamID{Ms: 1, Seq: 0}
	if _, err := s.XAdd("s", &id, map[string]string{"f": "v"}); err != nil {
		t.Fatalf("XAdd first: %s", err)
	}

	if _, err := s.XAdd("s", &id, map[string]string{"f": "v"}); err == nil {
		t.Fatalf("XAdd duplicate id should fail")
	}

	assigned, err := s.XAdd("s", nil, map[string]string{"f": "v2"})
	if err != nil {
		t.Fatalf("XAdd auto-id: %s", err)
	}
	if !id.Less(assigned) {
		t.Fatalf("auto-assigned id %s should sort after %s", assigned, id)
	}
}

func TestStreamRangeLen(t *testing.T) {
	s := New(0)
	s.XAdd("s", &StreamID{Ms: 1, Seq: 0}, map[string]string{"f": "1"})
	s.XAdd("s", &StreamID{Ms: 2, Seq: 0}, map[string]string{"f": "2"})
	s.XAdd("s", &StreamID{Ms: 3, Seq: 0}, map[string]string{"f": "3"})

	n, err := s.XLen("s")
	if err != nil || n != 3 {
		t.Fatalf("XLen: n=%d err=%s", n, err)
	}

	entries, err := s.XRange("s", StreamID{Ms: 0}, StreamID{Ms: 1 << 62}, 0)
	if err != nil || len(entries) != 3 {
		t.Fatalf("XRange: %d entries, err=%s", len(entries), err)
	}
}
