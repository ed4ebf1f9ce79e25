package store

import "testing"

// TestTSAddOutOfOrder: a decreasing timestamp must fail and leave the
// series unchanged.
func TestTSAddOutOfOrder(t *testing.T) {
	s := New(0)

	if err := s.TSAdd("t", 100, 1.0); err != nil {
		t.Fatalf("TSAdd: %s", err)
	}
	if err := s.TSAdd("t", 50, 2.0); err == nil {
		t.Fatalf("TSAdd with a decreasing timestamp should fail")
	}

	sample, err := s.TSGet("t")
	if err != nil || sample.Timestamp != 100 {
		t.Fatalf("TSGet after rejected append: %v, err=%s", sample, err)
	}
}

func TestTSAggregate(t *testing.T) {
	s := New(0)
	s.TSAdd("t", 0, 1)
	s.TSAdd("t", 5, 3)
	s.TSAdd("t", 10, 5)

	result, err := s.TSAggregate("t", AggAvg, 0, 10, 10)
	if err != nil {
		t.Fatalf("TSAggregate: %s", err)
	}
	if len(result) != 2 {
		t.Fatalf("TSAggregate: want 2 buckets, got %d", len(result))
	}
	if result[0].Value != 2 { // avg(1,3)
		t.Fatalf("TSAggregate bucket 0: got %v", result[0])
	}
}
