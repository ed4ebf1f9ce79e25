package store

import (
	"sort"
	"time"
)

// XAdd appends an entry to the stream at key. If id is nil, the id is
// generated from the current wall clock (ms, plus a sequence number one
// greater than the last entry's if it shares the same millisecond);
// otherwise id must be strictly greater than the stream's last id, else
// ErrStreamIDNotMonotonic. Returns the id actually stored.
func (s *Store) XAdd(key string, id *StreamID, fields map[string]string) (assigned StreamID, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindStream {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindStream}
		}

		var last StreamID
		if n := len(slot.Stream); n > 0 {
			last = slot.Stream[n-1].ID
		}

		if id == nil {
			now := time.Now().UnixMilli()
			if now == last.Ms {
				assigned = StreamID{Ms: now, Seq: last.Seq + 1}
			} else {
				assigned = StreamID{Ms: now, Seq: 0}
			}
		} else {
			if len(slot.Stream) > 0 && !last.Less(*id) {
				return slot, false, ErrStreamIDNotMonotonic
			}
			assigned = *id
		}

		slot.Stream = append(slot.Stream, StreamEntry{ID: assigned, Fields: fields})
		return slot, true, nil
	})
	return assigned, err
}

// minStreamID and maxStreamID realize the "-"/"+" XRANGE markers.
var (
	minStreamID = StreamID{Ms: 0, Seq: 0}
	maxStreamID = StreamID{Ms: 1<<63 - 1, Seq: 1<<63 - 1}
)

// XRange returns entries with id in [start, end], inclusive, in ascending
// id order, capped at count entries if count > 0.
func (s *Store) XRange(key string, start, end StreamID, count int) (result []StreamEntry, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindStream {
			return ErrWrongType
		}
		for _, entry := range slot.Stream {
			if entry.ID.Less(start) || end.Less(entry.ID) {
				continue
			}
			result = append(result, entry)
			if count > 0 && len(result) >= count {
				break
			}
		}
		return nil
	})
	return result, err
}

// XRevRange returns entries with id in [start, end], inclusive, in
// descending id order (XRANGE's bounds, reversed output).
func (s *Store) XRevRange(key string, start, end StreamID, count int) (result []StreamEntry, err error) {
	forward, err := s.XRange(key, start, end, 0)
	if err != nil {
		return nil, err
	}
	for i := len(forward) - 1; i >= 0; i-- {
		result = append(result, forward[i])
		if count > 0 && len(result) >= count {
			break
		}
	}
	return result, nil
}

// XLen returns the number of entries in the stream at key (0 if absent).
func (s *Store) XLen(key string) (length int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindStream {
			return ErrWrongType
		}
		length = len(slot.Stream)
		return nil
	})
	return length, err
}

// XRead returns entries from the stream at key with id strictly greater
// than after, capped at count entries if count > 0.
func (s *Store) XRead(key string, after StreamID, count int) (result []StreamEntry, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindStream {
			return ErrWrongType
		}
		idx := sort.Search(len(slot.Stream), func(i int) bool {
			return after.Less(slot.Stream[i].ID)
		})
		for _, entry := range slot.Stream[idx:] {
			result = append(result, entry)
			if count > 0 && len(result) >= count {
				break
			}
		}
		return nil
	})
	return result, err
}
