package store

import "testing"

func TestVecAddGetSearch(t *testing.T) {
	s := New(3)

	if err := s.VecAdd("v1", []float32{1, 0, 0}); err != nil {
		t.Fatalf("VecAdd v1: %s", err)
	}
	if err := s.VecAdd("v2", []float32{0, 1, 0}); err != nil {
		t.Fatalf("VecAdd v2: %s", err)
	}

	got, err := s.VecGet("v1")
	if err != nil || len(got) != 3 {
		t.Fatalf("VecGet: %v, err=%s", got, err)
	}

	results := s.VecSearch([]float32{1, 0, 0}, MetricCosine, 2)
	if len(results) == 0 || results[0].Key != "v1" {
		t.Fatalf("VecSearch: top result should be v1, got %v", results)
	}
}

func TestVecAddDimMismatch(t *testing.T) {
	s := New(3)

	if err := s.VecAdd("v", []float32{1, 0}); err != ErrVectorDim {
		t.Fatalf("VecAdd with wrong dimension: want ErrVectorDim, got %v", err)
	}
}
