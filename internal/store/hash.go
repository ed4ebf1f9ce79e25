package store

// HSet sets each field to its paired value in the hash at key, creating
// the hash if absent, and returns the number of fields that were newly
// created (not merely overwritten).
func (s *Store) HSet(key string, fields map[string][]byte) (created int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindHash {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = newSlot(KindHash)
		}
		for field, value := range fields {
			if _, ok := slot.Hash[field]; !ok {
				created++
			}
			slot.Hash[field] = append([]byte(nil), value...)
		}
		return slot, true, nil
	})
	return created, err
}

// HGet returns the value of field in the hash at key.
func (s *Store) HGet(key, field string) (value []byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		v, ok := slot.Hash[field]
		if !ok {
			return ErrNotFound
		}
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

// HGetAll returns every field and value of the hash at key as an
// alternating field, value, field, value... slice. Iteration order is not
// meaningful.
func (s *Store) HGetAll(key string) (result [][]byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		result = make([][]byte, 0, len(slot.Hash)*2)
		for field, value := range slot.Hash {
			result = append(result, []byte(field), append([]byte(nil), value...))
		}
		return nil
	})
	return result, err
}

// HDel removes the given fields from the hash at key and returns the
// number actually removed, deleting the key entirely once it empties.
func (s *Store) HDel(key string, fields []string) (removed int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindHash {
			return slot, false, ErrWrongType
		}
		for _, field := range fields {
			if _, ok := slot.Hash[field]; ok {
				delete(slot.Hash, field)
				removed++
			}
		}
		return slot, removed > 0, nil
	})
	return removed, err
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(key, field string) (exists bool, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		_, exists = slot.Hash[field]
		return nil
	})
	return exists, err
}

// HKeys returns all field names in the hash at key.
func (s *Store) HKeys(key string) (result []string, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		result = make([]string, 0, len(slot.Hash))
		for field := range slot.Hash {
			result = append(result, field)
		}
		return nil
	})
	return result, err
}

// HVals returns all values in the hash at key.
func (s *Store) HVals(key string) (result [][]byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		result = make([][]byte, 0, len(slot.Hash))
		for _, v := range slot.Hash {
			result = append(result, append([]byte(nil), v...))
		}
		return nil
	})
	return result, err
}

// HLen returns the number of fields in the hash at key (0 if absent).
func (s *Store) HLen(key string) (length int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindHash {
			return ErrWrongType
		}
		length = len(slot.Hash)
		return nil
	})
	return length, err
}
