package store

import (
	"math"
	"sort"
)

// VecAdd stores v as the vector at key, 32-bit-float-encoded, failing with
// ErrVectorDim if len(v) doesn't match the instance's configured dimension.
func (s *Store) VecAdd(key string, v []float32) error {
	if s.vectorDim > 0 && len(v) != s.vectorDim {
		return ErrVectorDim
	}
	return s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindVector {
			return slot, false, ErrWrongType
		}
		return &Slot{Kind: KindVector, Vector: append([]float32(nil), v...)}, true, nil
	})
}

// VecGet returns the vector stored at key.
func (s *Store) VecGet(key string) (v []float32, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindVector {
			return ErrWrongType
		}
		v = append([]float32(nil), slot.Vector...)
		return nil
	})
	return v, err
}

// VecMetric identifies a VecSearch distance function.
type VecMetric string

const (
	MetricCosine    VecMetric = "cosine"
	MetricEuclidean VecMetric = "euclidean"
	MetricDot       VecMetric = "dot"
)

// vecScore returns a similarity score for metric where higher is always
// closer, so VecSearch can rank every metric the same way.
func vecScore(metric VecMetric, a, b []float32) float64 {
	switch metric {
	case MetricEuclidean:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return 1 / (1 + math.Sqrt(sum))
	case MetricDot:
		var dot float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		return dot
	default: // cosine
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 0
		}
		return dot / (math.Sqrt(na) * math.Sqrt(nb))
	}
}

// VecResult is one ranked hit from VecSearch.
type VecResult struct {
	Key   string
	Score float64
}

// VecSearch brute-force scans every vector-typed key, scores it against
// query under metric, and returns the top kBest keys ranked closest-first.
func (s *Store) VecSearch(query []float32, metric VecMetric, kBest int) (results []VecResult) {
	if metric == "" {
		metric = MetricCosine
	}

	s.Snapshot(func(key string, slot *Slot) {
		if slot.Kind != KindVector || len(slot.Vector) != len(query) {
			return
		}
		results = append(results, VecResult{Key: key, Score: vecScore(metric, query, slot.Vector)})
	})

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if kBest < len(results) {
		results = results[:kBest]
	}
	return results
}
