package store

import (
	"math"
	"strconv"
	"time"
)

// SetOptions captures the NX/XX/EX/PX/KEEPTTL modifiers accepted by SET.
type SetOptions struct {
	NX      bool
	XX      bool
	TTL     time.Duration // zero means "no expiry specified"
	KeepTTL bool
}

// Set stores value at key per SetOptions, clearing any prior expiration
// unless KeepTTL is set. Returns false (no-op) if NX/XX preconditions fail.
func (s *Store) Set(key string, value []byte, opts SetOptions) (ok bool, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if opts.NX && exists {
			return slot, false, nil
		}
		if opts.XX && !exists {
			return nil, false, nil
		}

		var expireAt time.Time
		if opts.KeepTTL && exists {
			expireAt = slot.ExpireAt
		} else if opts.TTL > 0 {
			expireAt = time.Now().Add(opts.TTL)
		}

		next := &Slot{Kind: KindString, Str: append([]byte(nil), value...), ExpireAt: expireAt}
		ok = true
		return next, true, nil
	})
	return ok, err
}

// Get returns the string stored at key.
func (s *Store) Get(key string) (value []byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindString {
			return ErrWrongType
		}
		value = append([]byte(nil), slot.Str...)
		return nil
	})
	return value, err
}

// GetSet atomically sets key to value and returns the previous string, or
// ErrNotFound if key was absent (mirroring GET's missing-key error).
func (s *Store) GetSet(key string, value []byte) (previous []byte, err error) {
	found := false
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindString {
			return slot, false, ErrWrongType
		}
		if exists {
			previous = append([]byte(nil), slot.Str...)
			found = true
		}
		return &Slot{Kind: KindString, Str: append([]byte(nil), value...)}, true, nil
	})
	if err == nil && !found {
		err = ErrNotFound
	}
	return previous, err
}

// MGet returns the string value for each key, or nil for keys that are
// absent or hold a non-string type.
func (s *Store) MGet(keys []string) [][]byte {
	result := make([][]byte, len(keys))
	for i, key := range keys {
		s.withRead(key, func(slot *Slot) error {
			if slot != nil && slot.Kind == KindString {
				result[i] = append([]byte(nil), slot.Str...)
			}
			return nil
		})
	}
	return result
}

// MSet sets every key to its paired value unconditionally.
func (s *Store) MSet(pairs map[string][]byte) {
	for key, value := range pairs {
		s.Set(key, value, SetOptions{})
	}
}

// MSetNx sets every key to its paired value only if none of them already
// exist; it is all-or-nothing. Returns false if any key was already present.
func (s *Store) MSetNx(pairs map[string][]byte) bool {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}

	unlock := s.lockKeys(keys, true)
	defer unlock()

	now := time.Now()
	for _, key := range keys {
		b := s.bucketFor(key)
		if slot, ok := b.slots[key]; ok && !slot.expired(now) {
			return false
		}
	}

	for key, value := range pairs {
		b := s.bucketFor(key)
		b.slots[key] = &Slot{Kind: KindString, Str: append([]byte(nil), value...)}
	}
	s.markDirty()

	return true
}

// Append appends value to the string at key, creating it if absent, and
// returns the resulting length.
func (s *Store) Append(key string, value []byte) (length int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindString {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindString}
		}
		slot.Str = append(slot.Str, value...)
		length = len(slot.Str)
		return slot, true, nil
	})
	return length, err
}

// Strlen returns the length in bytes of the string at key (0 if absent).
func (s *Store) Strlen(key string) (length int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindString {
			return ErrWrongType
		}
		length = len(slot.Str)
		return nil
	})
	return length, err
}

// GetRange returns the substring of key between start and end, inclusive,
// supporting negative indices relative to the end of the string.
func (s *Store) GetRange(key string, start, end int) (result []byte, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindString {
			return ErrWrongType
		}
		lo, hi, ok := clampRange(start, end, len(slot.Str))
		if !ok {
			return nil
		}
		result = append([]byte(nil), slot.Str[lo:hi+1]...)
		return nil
	})
	return result, err
}

// SetRange overwrites key starting at offset with value, zero-filling any
// gap between the current length and offset, and returns the new length.
func (s *Store) SetRange(key string, offset int, value []byte) (length int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindString {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = &Slot{Kind: KindString}
		}
		needed := offset + len(value)
		if needed > len(slot.Str) {
			grown := make([]byte, needed)
			copy(grown, slot.Str)
			slot.Str = grown
		}
		copy(slot.Str[offset:], value)
		length = len(slot.Str)
		return slot, true, nil
	})
	return length, err
}

// clampRange converts Redis-style possibly-negative start/end indices into
// an inclusive, in-bounds [lo, hi] pair. ok is false when the range is empty.
func clampRange(start, end, length int) (lo, hi int, ok bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	if start > end || start >= length {
		return 0, 0, false
	}
	return start, end, true
}

// incrInt applies delta to the integer value at key, creating it as 0 if
// absent, and returns the new value.
func (s *Store) incrInt(key string, delta int64) (result int64, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		var current int64
		if exists {
			if slot.Kind != KindString {
				return slot, false, ErrWrongType
			}
			current, err = strconv.ParseInt(string(slot.Str), 10, 64)
			if err != nil {
				return slot, false, ErrNotInteger
			}
		}

		if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
			return slot, false, ErrOverflow
		}

		result = current + delta
		return &Slot{Kind: KindString, Str: []byte(strconv.FormatInt(result, 10))}, true, nil
	})
	return result, err
}

// Incr increments the integer at key by 1.
func (s *Store) Incr(key string) (int64, error) { return s.incrInt(key, 1) }

// Decr decrements the integer at key by 1.
func (s *Store) Decr(key string) (int64, error) { return s.incrInt(key, -1) }

// IncrBy increments the integer at key by delta.
func (s *Store) IncrBy(key string, delta int64) (int64, error) { return s.incrInt(key, delta) }

// IncrByFloat increments the float at key by delta and returns the result.
func (s *Store) IncrByFloat(key string, delta float64) (result float64, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		var current float64
		if exists {
			if slot.Kind != KindString {
				return slot, false, ErrWrongType
			}
			current, err = strconv.ParseFloat(string(slot.Str), 64)
			if err != nil {
				return slot, false, ErrNotFloat
			}
		}

		result = current + delta
		return &Slot{Kind: KindString, Str: []byte(strconv.FormatFloat(result, 'f', -1, 64))}, true, nil
	})
	return result, err
}
