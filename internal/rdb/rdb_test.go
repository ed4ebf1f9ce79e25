package rdb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/mshaverdo/keelhaul/internal/store"
)

func populate(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(0)
	if _, err := s.Set("str", []byte("value"), store.SetOptions{}); err != nil {
		t.Fatalf("Set: %s", err)
	}
	if _, err := s.RPush("list", [][]byte{[]byte("a"), []byte("b")}); err != nil {
		t.Fatalf("RPush: %s", err)
	}
	if _, err := s.ZAdd("zset", map[string]float64{"m": 1.5}); err != nil {
		t.Fatalf("ZAdd: %s", err)
	}
	s.Expire("str", 3600)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.rdb")
	s := populate(t)

	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %s", err)
	}

	slots, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}

	s2 := store.New(0)
	s2.LoadSnapshot(slots)

	v, err := s2.Get("str")
	if err != nil || string(v) != "value" {
		t.Fatalf("Get after reload: v=%s err=%v", v, err)
	}
	list, err := s2.LRange("list", 0, -1)
	if err != nil {
		t.Fatalf("LRange after reload: %s", err)
	}
	if diff := deep.Equal(list, [][]byte{[]byte("a"), []byte("b")}); diff != nil {
		t.Fatalf("list after reload: %v", diff)
	}
	score, err := s2.ZScore("zset", "m")
	if err != nil || score != 1.5 {
		t.Fatalf("ZScore after reload: %v err=%v", score, err)
	}

	if ttl := s2.TTL("str"); ttl <= 0 || ttl > 3600 {
		t.Fatalf("expiration must survive the round trip: TTL=%d", ttl)
	}
}

func TestLoadMissingFile(t *testing.T) {
	slots, err := Load(filepath.Join(t.TempDir(), "nope.rdb"))
	if err != nil || slots != nil {
		t.Fatalf("Load of a missing file: slots=%v err=%v", slots, err)
	}
}

func TestLoadRejectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.rdb")
	if err := Save(path, populate(t)); err != nil {
		t.Fatalf("Save: %s", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %s", err)
	}
	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("Load of a corrupted file should fail the checksum")
	}
}

func TestEncodeDecodeBytes(t *testing.T) {
	s := populate(t)

	payload, err := EncodeBytes(s)
	if err != nil {
		t.Fatalf("EncodeBytes: %s", err)
	}
	slots, err := DecodeBytes(payload)
	if err != nil {
		t.Fatalf("DecodeBytes: %s", err)
	}
	if len(slots) != 3 {
		t.Fatalf("DecodeBytes: want 3 keys, got %d", len(slots))
	}
	if slots["str"].ExpireAt.Before(time.Now()) {
		t.Fatalf("decoded expiration should still be in the future")
	}
}
