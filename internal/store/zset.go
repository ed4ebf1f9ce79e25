package store

import "sort"

// ZMember pairs a sorted-set member with its score.
type ZMember struct {
	Member string
	Score  float64
}

// sortedMembers returns a zset's members ordered primarily by ascending
// score and secondarily by ascending member byte-string, the total order
// every ZRANGE-family command relies on.
func sortedMembers(zset map[string]float64) []ZMember {
	members := make([]ZMember, 0, len(zset))
	for m, score := range zset {
		members = append(members, ZMember{Member: m, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return members[i].Member < members[j].Member
	})
	return members
}

// ZAdd sets each member's score in the zset at key, creating it if absent,
// and returns the count of members that were newly added.
func (s *Store) ZAdd(key string, scores map[string]float64) (added int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindZSet {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = newSlot(KindZSet)
		}
		for member, score := range scores {
			if _, ok := slot.ZSet[member]; !ok {
				added++
			}
			slot.ZSet[member] = score
		}
		return slot, true, nil
	})
	return added, err
}

// ZRem removes members from the zset at key and returns the count actually
// removed, deleting the key entirely once it empties.
func (s *Store) ZRem(key string, members []string) (removed int, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if slot.Kind != KindZSet {
			return slot, false, ErrWrongType
		}
		for _, m := range members {
			if _, ok := slot.ZSet[m]; ok {
				delete(slot.ZSet, m)
				removed++
			}
		}
		return slot, removed > 0, nil
	})
	return removed, err
}

// ZCard returns the number of members in the zset at key (0 if absent).
func (s *Store) ZCard(key string) (count int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		count = len(slot.ZSet)
		return nil
	})
	return count, err
}

// ZScore returns the score of member in the zset at key.
func (s *Store) ZScore(key, member string) (score float64, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		v, ok := slot.ZSet[member]
		if !ok {
			return ErrNotFound
		}
		score = v
		return nil
	})
	return score, err
}

// ZIncrBy adds delta to member's score in the zset at key, creating both
// the zset and the member (with score 0 as a base) if absent.
func (s *Store) ZIncrBy(key, member string, delta float64) (result float64, err error) {
	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindZSet {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = newSlot(KindZSet)
		}
		result = slot.ZSet[member] + delta
		slot.ZSet[member] = result
		return slot, true, nil
	})
	return result, err
}

// ZCount returns the number of members whose score falls within [min, max].
func (s *Store) ZCount(key string, min, max float64) (count int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		for _, score := range slot.ZSet {
			if score >= min && score <= max {
				count++
			}
		}
		return nil
	})
	return count, err
}

// ZRank returns the 0-based ascending rank of member in the zset at key.
func (s *Store) ZRank(key, member string) (rank int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		if _, ok := slot.ZSet[member]; !ok {
			return ErrNotFound
		}
		for i, m := range sortedMembers(slot.ZSet) {
			if m.Member == member {
				rank = i
				return nil
			}
		}
		return ErrNotFound
	})
	return rank, err
}

// ZRevRank returns the 0-based descending rank of member in the zset at key.
func (s *Store) ZRevRank(key, member string) (rank int, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return ErrNotFound
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		members := sortedMembers(slot.ZSet)
		for i, m := range members {
			if m.Member == member {
				rank = len(members) - 1 - i
				return nil
			}
		}
		return ErrNotFound
	})
	return rank, err
}

// ZRange returns the members between start and stop, inclusive, in
// ascending (score, member) order, with Redis-style negative indices.
func (s *Store) ZRange(key string, start, stop int) (result []ZMember, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		members := sortedMembers(slot.ZSet)
		lo, hi, ok := clampRange(start, stop, len(members))
		if !ok {
			return nil
		}
		result = append([]ZMember(nil), members[lo:hi+1]...)
		return nil
	})
	return result, err
}

// ZRevRange returns the members between start and stop, inclusive, in
// descending (score, member) order.
func (s *Store) ZRevRange(key string, start, stop int) (result []ZMember, err error) {
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindZSet {
			return ErrWrongType
		}
		members := sortedMembers(slot.ZSet)
		reversed := make([]ZMember, len(members))
		for i, m := range members {
			reversed[len(members)-1-i] = m
		}
		lo, hi, ok := clampRange(start, stop, len(reversed))
		if !ok {
			return nil
		}
		result = append([]ZMember(nil), reversed[lo:hi+1]...)
		return nil
	})
	return result, err
}
