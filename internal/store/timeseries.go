package store

import "sort"

// TSAdd appends (timestamp, value) to the time series at key, creating it
// if absent. Timestamps must be non-decreasing; a sample older than the
// last one fails with ErrOutOfOrderTimestamp and the series is left
// unchanged.
func (s *Store) TSAdd(key string, timestamp int64, value float64) error {
	return s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindTimeSeries {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindTimeSeries}
		}
		if n := len(slot.TimeSeries); n > 0 && timestamp < slot.TimeSeries[n-1].Timestamp {
			return slot, false, ErrOutOfOrderTimestamp
		}
		slot.TimeSeries = append(slot.TimeSeries, TSSample{Timestamp: timestamp, Value: value})
		return slot, true, nil
	})
}

// TSGet returns the most recent sample in the time series at key.
func (s *Store) TSGet(key string) (sample TSSample, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindTimeSeries {
			return ErrWrongType
		}
		if len(slot.TimeSeries) == 0 {
			return ErrNotFound
		}
		sample = slot.TimeSeries[len(slot.TimeSeries)-1]
		return nil
	})
	return sample, err
}

// TSRange returns samples with timestamp in [start, end], inclusive,
// capped at count samples if count > 0.
func (s *Store) TSRange(key string, start, end int64, count int) (result []TSSample, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindTimeSeries {
			return ErrWrongType
		}
		lo := sort.Search(len(slot.TimeSeries), func(i int) bool {
			return slot.TimeSeries[i].Timestamp >= start
		})
		for _, sample := range slot.TimeSeries[lo:] {
			if sample.Timestamp > end {
				break
			}
			result = append(result, sample)
			if count > 0 && len(result) >= count {
				break
			}
		}
		return nil
	})
	return result, err
}

// TSAggOp identifies a TSAggregate bucket-reduction function.
type TSAggOp string

const (
	AggAvg   TSAggOp = "avg"
	AggSum   TSAggOp = "sum"
	AggMin   TSAggOp = "min"
	AggMax   TSAggOp = "max"
	AggCount TSAggOp = "count"
	AggFirst TSAggOp = "first"
	AggLast  TSAggOp = "last"
)

// TSAggregate buckets the samples of the time series at key in [start, end]
// by (timestamp-start)/bucket and reduces each bucket with op, returning
// one result per non-empty bucket ordered by bucket index.
func (s *Store) TSAggregate(key string, op TSAggOp, start, end, bucket int64) (result []TSSample, err error) {
	if bucket <= 0 {
		return nil, ErrSyntax
	}

	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindTimeSeries {
			return ErrWrongType
		}

		buckets := make(map[int64][]float64)
		var order []int64
		for _, sample := range slot.TimeSeries {
			if sample.Timestamp < start || sample.Timestamp > end {
				continue
			}
			idx := (sample.Timestamp - start) / bucket
			if _, ok := buckets[idx]; !ok {
				order = append(order, idx)
			}
			buckets[idx] = append(buckets[idx], sample.Value)
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

		for _, idx := range order {
			values := buckets[idx]
			result = append(result, TSSample{
				Timestamp: start + idx*bucket,
				Value:     reduceBucket(op, values),
			})
		}
		return nil
	})
	return result, err
}

func reduceBucket(op TSAggOp, values []float64) float64 {
	switch op {
	case AggSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case AggCount:
		return float64(len(values))
	case AggFirst:
		return values[0]
	case AggLast:
		return values[len(values)-1]
	default: // avg
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}
