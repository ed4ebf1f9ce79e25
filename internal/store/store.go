// Package store implements the keyspace engine: a striped, lock-protected
// map from key to typed Slot, the per-family Type Operations that mutate it,
// and the lazy/active expiration subsystem. It is the only package that
// modifies Slot contents; command dispatch goes through the methods in this
// package, and persistence and replication read Slots only as handed out by
// Snapshot and hand them back through LoadSnapshot.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/mshaverdo/assert"
)

// stripes is the fixed size of the lock table. Redis-style sharding: each
// key always hashes to the same bucket, so a single-key operation takes
// exactly one lock and multi-key operations can be ordered deadlock-free.
const stripes = 1024

type bucket struct {
	mu    sync.RWMutex
	slots map[string]*Slot
}

// Store is a keyed container of slots with per-key locking and a global
// snapshot read-write lock used by RDB dumps to obtain a consistent view.
type Store struct {
	buckets   [stripes]*bucket
	snapshot  sync.RWMutex // writers hold RLock; a dump briefly takes Lock
	vectorDim int

	changesSince int64 // atomic-ish counter guarded by changesMu, for save-trigger rules
	changesMu    sync.Mutex
}

// New constructs an empty Store. vectorDim configures the fixed dimension
// VECADD enforces for this instance (0 leaves the dimension unconstrained).
func New(vectorDim int) *Store {
	s := &Store{vectorDim: vectorDim}
	for i := range s.buckets {
		s.buckets[i] = &bucket{slots: make(map[string]*Slot)}
	}
	return s
}

// VectorDim returns the configured vector dimension for this instance.
func (s *Store) VectorDim() int {
	return s.vectorDim
}

func bucketIndex(key string) int {
	return int(xxhash.ChecksumString64(key) % stripes)
}

func (s *Store) bucketFor(key string) *bucket {
	return s.buckets[bucketIndex(key)]
}

func (s *Store) markDirty() {
	s.changesMu.Lock()
	s.changesSince++
	s.changesMu.Unlock()
}

// ChangesSinceReset returns the number of mutations applied since the last
// ResetChangeCounter call, feeding the "N changes accumulated" save rule.
func (s *Store) ChangesSinceReset() int64 {
	s.changesMu.Lock()
	defer s.changesMu.Unlock()
	return s.changesSince
}

// ResetChangeCounter zeroes the change counter, called after an RDB save.
func (s *Store) ResetChangeCounter() {
	s.changesMu.Lock()
	s.changesSince = 0
	s.changesMu.Unlock()
}

// withRead runs fn with a read lock held on key's bucket. The slot passed to
// fn is nil if the key is absent or lazily found expired; in the expired
// case the slot is deleted before fn observes it.
func (s *Store) withRead(key string, fn func(slot *Slot) error) error {
	b := s.bucketFor(key)

	b.mu.RLock()
	slot, ok := b.slots[key]
	if ok && slot.expired(time.Now()) {
		b.mu.RUnlock()
		s.expireNow(key)
		return fn(nil)
	}
	if !ok {
		slot = nil
	}
	err := fn(slot)
	b.mu.RUnlock()
	return err
}

// withWrite runs fn with a write lock held on key's bucket. slot is nil if
// the key is absent (or was lazily expired and removed first). fn returns
// the slot that should remain stored (nil to delete) and whether a change
// happened, letting callers implement key-missing / delete-on-empty policy
// in one place.
func (s *Store) withWrite(key string, fn func(slot *Slot, exists bool) (next *Slot, changed bool, err error)) error {
	b := s.bucketFor(key)

	s.snapshot.RLock()
	defer s.snapshot.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.slots[key]
	if ok && slot.expired(time.Now()) {
		delete(b.slots, key)
		ok = false
		slot = nil
	}

	next, changed, err := fn(slot, ok)
	if err != nil {
		return err
	}

	if next == nil || next.empty() {
		delete(b.slots, key)
	} else {
		b.slots[key] = next
	}

	if changed {
		s.markDirty()
	}

	return nil
}

// lockKeys acquires the buckets for every distinct key among keys, in
// ascending stripe-index order, and returns an unlock func. Multi-key
// operations (SINTER, rename-style flows) use this to avoid deadlocks.
func (s *Store) lockKeys(keys []string, write bool) func() {
	seen := make(map[int]bool, len(keys))
	var idxs []int
	for _, k := range keys {
		i := bucketIndex(k)
		if !seen[i] {
			seen[i] = true
			idxs = append(idxs, i)
		}
	}
	sort.Ints(idxs)

	for _, i := range idxs {
		if write {
			s.buckets[i].mu.Lock()
		} else {
			s.buckets[i].mu.RLock()
		}
	}

	return func() {
		for j := len(idxs) - 1; j >= 0; j-- {
			if write {
				s.buckets[idxs[j]].mu.Unlock()
			} else {
				s.buckets[idxs[j]].mu.RUnlock()
			}
		}
	}
}

// expireNow deletes key if it is present and actually expired. Used by the
// lazy-check path and by the active sweeper.
func (s *Store) expireNow(key string) (deleted bool) {
	s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		if !slot.expired(time.Now()) {
			return slot, false, nil
		}
		deleted = true
		return nil, true, nil
	})
	return deleted
}

// Exists reports whether key is live (present and unexpired).
func (s *Store) Exists(key string) bool {
	live := false
	s.withRead(key, func(slot *Slot) error {
		live = slot != nil
		return nil
	})
	return live
}

// Type returns the type name of key, or "none" if it is absent.
func (s *Store) Type(key string) string {
	name := "none"
	s.withRead(key, func(slot *Slot) error {
		if slot != nil {
			name = slot.Kind.String()
		}
		return nil
	})
	return name
}

// Del removes the given keys, ignoring absent ones, and returns the count
// of keys that were actually removed.
func (s *Store) Del(keys []string) int {
	count := 0
	for _, key := range keys {
		s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
			if !exists {
				return nil, false, nil
			}
			count++
			return nil, true, nil
		})
	}
	return count
}

// Expire sets key's expiration to now+seconds. Returns 0 if key is absent,
// 1 on success. A non-positive seconds value expires the key immediately.
func (s *Store) Expire(key string, seconds int64) int {
	return s.ExpireAt(key, time.Now().Add(time.Duration(seconds)*time.Second))
}

// ExpireAt sets key's absolute expiration instant. Returns 0 if key is
// absent, 1 on success. Exported separately so AOF/replication replay can
// set the exact materialized instant rather than recomputing now()+seconds.
func (s *Store) ExpireAt(key string, at time.Time) int {
	result := 0
	s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists {
			return nil, false, nil
		}
		slot.ExpireAt = at
		result = 1
		if slot.expired(time.Now()) {
			return nil, true, nil
		}
		return slot, true, nil
	})
	return result
}

// Persist removes any existing timeout on key. Returns 1 if a timeout was
// removed, 0 if key is absent or had no timeout.
func (s *Store) Persist(key string) int {
	result := 0
	s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if !exists || slot.ExpireAt.IsZero() {
			return slot, false, nil
		}
		slot.ExpireAt = time.Time{}
		result = 1
		return slot, true, nil
	})
	return result
}

// TTL returns the remaining seconds to live of key: -2 if absent, -1 if no
// expiry, otherwise the remaining whole seconds (at least 1 while live).
func (s *Store) TTL(key string) int64 {
	ttl := int64(-2)
	s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			ttl = -2
			return nil
		}
		if slot.ExpireAt.IsZero() {
			ttl = -1
			return nil
		}
		remaining := time.Until(slot.ExpireAt)
		if remaining < 0 {
			remaining = 0
		}
		ttl = int64(remaining.Seconds())
		if ttl == 0 && remaining > 0 {
			ttl = 1
		}
		return nil
	})
	return ttl
}

// Snapshot invokes fn once for every live key in the store under the global
// snapshot write lock, used by the RDB writer and by AOF rewrite to obtain
// a momentarily-consistent full scan. fn must not call back into the Store.
func (s *Store) Snapshot(fn func(key string, slot *Slot)) {
	s.snapshot.Lock()
	defer s.snapshot.Unlock()

	now := time.Now()
	for _, b := range s.buckets {
		b.mu.RLock()
		for key, slot := range b.slots {
			if slot.expired(now) {
				continue
			}
			fn(key, slot)
		}
		b.mu.RUnlock()
	}
}

// LoadSnapshot replaces the entire keyspace with the given entries. Used on
// RDB load and on a replica applying a primary's FULLRESYNC dump. Must only
// be called before the store is serving concurrent traffic.
func (s *Store) LoadSnapshot(entries map[string]*Slot) {
	s.snapshot.Lock()
	defer s.snapshot.Unlock()

	for _, b := range s.buckets {
		b.mu.Lock()
		b.slots = make(map[string]*Slot)
		b.mu.Unlock()
	}

	for key, slot := range entries {
		assert.True(slot != nil, "store: trying to load nil slot for key "+key)
		b := s.bucketFor(key)
		b.mu.Lock()
		b.slots[key] = slot
		b.mu.Unlock()
	}
}

// expiringKeySample is used by the active sweeper to pick candidates without
// scanning the whole keyspace every tick.
type expiringKeySample struct {
	key    string
	bucket int
}

// sampleExpiring returns up to n keys that currently carry an expiration,
// scanning buckets in round-robin starting at startBucket so repeated ticks
// cover the whole keyspace over time. It does not itself decide liveness.
func (s *Store) sampleExpiring(startBucket, n int) (samples []expiringKeySample, nextBucket int) {
	i := startBucket
	for scanned := 0; scanned < stripes && len(samples) < n; scanned++ {
		b := s.buckets[i%stripes]
		b.mu.RLock()
		for key, slot := range b.slots {
			if !slot.ExpireAt.IsZero() {
				samples = append(samples, expiringKeySample{key: key, bucket: i % stripes})
				if len(samples) >= n {
					break
				}
			}
		}
		b.mu.RUnlock()
		i++
	}
	return samples, i % stripes
}

// CollectExpired runs one pass of the active sweeper: sample at most n keys
// bearing an expiration, delete whichever are actually expired, and report
// how many keys were sampled and how many were removed. The caller (the
// periodic sweeper loop) uses expired/sampled > 25% to decide whether to
// run another pass immediately.
func (s *Store) CollectExpired(startBucket, n int) (sampled, expired, nextBucket int) {
	samples, next := s.sampleExpiring(startBucket, n)
	for _, sample := range samples {
		if s.expireNow(sample.key) {
			expired++
		}
	}
	return len(samples), expired, next
}
