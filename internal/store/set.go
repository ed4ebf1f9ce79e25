package store

import (
	"math/rand"
	"time"
)

// SAdd adds members to the set at key, creating it if absent, and returns
// the count of members that were newly added.
func (s *Store) SAdd(key string, members []string) (added int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindSet {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = newSlot(KindSet)
		}
		for _, m := range members {
			if _, ok := slot.Set[m]; !ok {
				slot.Set[m] = struct{}{}
				added++
			}
		}
		return slot, added > 0, nil
	})
	return added, err
}

// SRem removes members from the set at key and returns the count actually
// removed, deleting the key entirely once it empties.
func (s *Store) SRem(key string, members []string) (removed int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindSet {
			return slot, false, ErrWrongType
		}
		for _, m := range members {
			if _, ok := slot.Set[m]; ok {
				delete(slot.Set, m)
				removed++
			}
		}
		return slot, removed > 0, nil
	})
	return removed, err
}

// SMembers returns every member of the set at key.
func (s *Store) SMembers(key string) (result []string, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindSet {
			return ErrWrongType
		}
		result = make([]string, 0, len(slot.Set))
		for m := range slot.Set {
			result = append(result, m)
		}
		return nil
	})
	return result, err
}

// SIsMember reports whether member belongs to the set at key.
func (s *Store) SIsMember(key, member string) (ok bool, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindSet {
			return ErrWrongType
		}
		_, ok = slot.Set[member]
		return nil
	})
	return ok, err
}

// SCard returns the number of members in the set at key (0 if absent).
func (s *Store) SCard(key string) (count int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindSet {
			return ErrWrongType
		}
		count = len(slot.Set)
		return nil
	})
	return count, err
}

// SPop removes and returns up to count arbitrarily-chosen members from the
// set at key, deleting the key entirely once it empties.
func (s *Store) SPop(key string, count int) (result []string, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindSet {
			return slot, false, ErrWrongType
		}
		for m := range slot.Set {
			if len(result) >= count {
				break
			}
			result = append(result, m)
		}
		for _, m := range result {
			delete(slot.Set, m)
		}
		return slot, len(result) > 0, nil
	})
	return result, err
}

// SRandMember returns up to count arbitrarily-chosen members from the set
// at key without removing them.
func (s *Store) SRandMember(key string, count int) (result []string, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindSet {
			return ErrWrongType
		}
		all := make([]string, 0, len(slot.Set))
		for m := range slot.Set {
			all = append(all, m)
		}
		rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		if count > len(all) {
			count = len(all)
		}
		result = all[:count]
		return nil
	})
	return result, err
}

// readSetOrEmpty returns the members of key as a map, treating an absent
// key as the empty set per the algebraic set-operation contract.
func (s *Store) readSetOrEmpty(key string) (map[string]struct{}, error) {
	b := s.bucketFor(key)
	slot, ok := b.slots[key]
	if !ok || slot.expired(time.Now()) {
		return map[string]struct{}{}, nil
	}
	if slot.Kind != KindSet {
		return nil, ErrWrongType
	}
	return slot.Set, nil
}

// SInter returns the intersection of the sets at keys; a missing key is
// treated as the empty set, so the result is empty whenever any key is
// absent.
func (s *Store) SInter(keys []string) ([]string, error) {
	unlock := s.lockKeys(keys, false)
	defer unlock()

	sets := make([]map[string]struct{}, len(keys))
	for i, k := range keys {
		set, err := s.readSetOrEmpty(k)
		if err != nil {
			return nil, err
		}
		sets[i] = set
	}

	if len(sets) == 0 {
		return nil, nil
	}

	var result []string
	for m := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if _, ok := set[m]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			result = append(result, m)
		}
	}
	return result, nil
}

// SUnion returns the union of the sets at keys; a missing key contributes
// nothing.
func (s *Store) SUnion(keys []string) ([]string, error) {
	unlock := s.lockKeys(keys, false)
	defer unlock()

	union := make(map[string]struct{})
	for _, k := range keys {
		set, err := s.readSetOrEmpty(k)
		if err != nil {
			return nil, err
		}
		for m := range set {
			union[m] = struct{}{}
		}
	}

	result := make([]string, 0, len(union))
	for m := range union {
		result = append(result, m)
	}
	return result, nil
}

// SDiff returns the members of the first key's set that do not appear in
// any of the remaining keys' sets (left-associative difference).
func (s *Store) SDiff(keys []string) ([]string, error) {
	unlock := s.lockKeys(keys, false)
	defer unlock()

	if len(keys) == 0 {
		return nil, nil
	}

	first, err := s.readSetOrEmpty(keys[0])
	if err != nil {
		return nil, err
	}

	rest := make(map[string]struct{})
	for _, k := range keys[1:] {
		set, err := s.readSetOrEmpty(k)
		if err != nil {
			return nil, err
		}
		for m := range set {
			rest[m] = struct{}{}
		}
	}

	var result []string
	for m := range first {
		if _, ok := rest[m]; !ok {
			result = append(result, m)
		}
	}
	return result, nil
}
