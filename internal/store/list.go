package store

// LPush inserts values at the head of the list at key, creating it if
// absent, and returns the new length. Values are pushed one at a time in
// argument order, so the last argument ends up closest to the head.
func (s *Store) LPush(key string, values [][]byte) (length int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindList}
		}
		for _, v := range values {
			slot.List = append([][]byte{append([]byte(nil), v...)}, slot.List...)
		}
		length = len(slot.List)
		return slot, true, nil
	})
	return length, err
}

// RPush inserts values at the tail of the list at key, creating it if
// absent, and returns the new length.
func (s *Store) RPush(key string, values [][]byte) (length int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindList}
		}
		for _, v := range values {
			slot.List = append(slot.List, append([]byte(nil), v...))
		}
		length = len(slot.List)
		return slot, true, nil
	})
	return length, err
}

// LPop removes and returns up to count elements from the head of the list.
// count == 1 returns a single-element slice or nil if the key is absent;
// emptying the list deletes the key.
func (s *Store) LPop(key string, count int) (result [][]byte, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		n := count
		if n > len(slot.List) {
			n = len(slot.List)
		}
		result = slot.List[:n]
		slot.List = slot.List[n:]
		return slot, n > 0, nil
	})
	return result, err
}

// RPop removes and returns up to count elements from the tail of the list.
func (s *Store) RPop(key string, count int) (result [][]byte, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		n := count
		if n > len(slot.List) {
			n = len(slot.List)
		}
		tail := len(slot.List) - n
		result = make([][]byte, n)
		for i := 0; i < n; i++ {
			result[i] = slot.List[len(slot.List)-1-i]
		}
		slot.List = slot.List[:tail]
		return slot, n > 0, nil
	})
	return result, err
}

// LRange returns the elements of the list between start and stop,
// inclusive, with Redis-style negative indices; out-of-range bounds yield
// an empty (not erroring) slice.
func (s *Store) LRange(key string, start, stop int) (result [][]byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindList {
			return ErrWrongType
		}
		lo, hi, ok := clampRange(start, stop, len(slot.List))
		if !ok {
			return nil
		}
		result = append([][]byte(nil), slot.List[lo:hi+1]...)
		return nil
	})
	return result, err
}

// LIndex returns the element at index (negative indices count from the
// end), or ErrOutOfRange if index is out of bounds.
func (s *Store) LIndex(key string, index int) (result []byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindList {
			return ErrWrongType
		}
		i := index
		if i < 0 {
			i += len(slot.List)
		}
		if i < 0 || i >= len(slot.List) {
			return ErrOutOfRange
		}
		result = append([]byte(nil), slot.List[i]...)
		return nil
	})
	return result, err
}

// LSet sets the list element at index to value, failing with ErrOutOfRange
// if index is beyond the list's bounds.
func (s *Store) LSet(key string, index int, value []byte) error {
	return s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, ErrNotFound
		}
		if slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		i := index
		if i < 0 {
			i += len(slot.List)
		}
		if i < 0 || i >= len(slot.List) {
			return slot, false, ErrOutOfRange
		}
		slot.List[i] = append([]byte(nil), value...)
		return slot, true, nil
	})
}

// LTrim keeps only the elements between start and stop, inclusive, deleting
// the key entirely if the trimmed range is empty.
func (s *Store) LTrim(key string, start, stop int) error {
	return s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindList {
			return slot, false, ErrWrongType
		}
		lo, hi, ok := clampRange(start, stop, len(slot.List))
		if !ok {
			return nil, true, nil
		}
		slot.List = append([][]byte(nil), slot.List[lo:hi+1]...)
		return slot, true, nil
	})
}

// LLen returns the length of the list at key (0 if absent).
func (s *Store) LLen(key string) (length int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindList {
			return ErrWrongType
		}
		length = len(slot.List)
		return nil
	})
	return length, err
}
