package store

import "testing"

func TestExpireTTLPersist(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("v"), SetOptions{})

	if n := s.Expire("k", 100); n != 1 {
		t.Fatalf("Expire: want 1, got %d", n)
	}

	ttl := s.TTL("k")
	if ttl <= 0 || ttl > 100 {
		t.Fatalf("TTL: want in (0,100], got %d", ttl)
	}

	if n := s.Persist("k"); n != 1 {
		t.Fatalf("Persist: want 1, got %d", n)
	}
	if ttl := s.TTL("k"); ttl != -1 {
		t.Fatalf("TTL after Persist: want -1, got %d", ttl)
	}
}

// TestTTLMissingKeyInvariant: TTL(k) = -2 implies EXISTS(k) = 0.
func TestTTLMissingKeyInvariant(t *testing.T) {
	s := New(0)

	if ttl := s.TTL("missing"); ttl != -2 {
		t.Fatalf("TTL on a missing key: want -2, got %d", ttl)
	}
	if s.Exists("missing") {
		t.Fatalf("Exists should be false for a missing key")
	}
}

func TestTypeAndDel(t *testing.T) {
	s := New(0)
	s.Set("str", []byte("v"), SetOptions{})
	s.RPush("list", [][]byte{[]byte("a")})

	if typ := s.Type("str"); typ != "string" {
		t.Fatalf("Type: got %q", typ)
	}
	if typ := s.Type("list"); typ != "list" {
		t.Fatalf("Type: got %q", typ)
	}

	n := s.Del([]string{"str", "list", "missing"})
	if n != 2 {
		t.Fatalf("Del: want 2 removed, got %d", n)
	}
	if s.Exists("str") || s.Exists("list") {
		t.Fatalf("keys should be gone after Del")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("v"), SetOptions{})
	s.RPush("l", [][]byte{[]byte("a"), []byte("b")})

	entries := make(map[string]*Slot)
	s.Snapshot(func(key string, slot *Slot) {
		entries[key] = slot
	})

	s2 := New(0)
	s2.LoadSnapshot(entries)

	v, err := s2.Get("k")
	if err != nil || string(v) != "v" {
		t.Fatalf("Get after LoadSnapshot: v=%s err=%s", v, err)
	}
	n, err := s2.LLen("l")
	if err != nil || n != 2 {
		t.Fatalf("LLen after LoadSnapshot: n=%d err=%s", n, err)
	}
}
