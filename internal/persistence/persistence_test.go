package persistence

import (
	"path/filepath"
	"testing"

	"github.com/mshaverdo/keelhaul/internal/aof"
	"github.com/mshaverdo/keelhaul/internal/server"
	"github.com/mshaverdo/keelhaul/internal/store"
)

func managerFor(t *testing.T, dir string) (*Manager, *server.Dispatcher) {
	t.Helper()
	st := store.New(0)
	m := New(Config{
		AOFEnabled: true,
		AOFPath:    filepath.Join(dir, "test.aof"),
		RDBEnabled: true,
		RDBPath:    filepath.Join(dir, "test.rdb"),
	}, st)
	d := &server.Dispatcher{Store: st, Persist: m}
	return m, d
}

// TestRecoverReplaysAOF drives a full crash-recovery cycle: mutate, drop
// the live state, recover a fresh instance from the same directory.
func TestRecoverReplaysAOF(t *testing.T) {
	dir := t.TempDir()

	m, d := managerFor(t, dir)
	if err := m.Recover(d); err != nil {
		t.Fatalf("initial Recover: %s", err)
	}
	d.Handle(&server.Session{}, "SET", [][]byte{[]byte("a"), []byte("1")})
	for i := 0; i < 5; i++ {
		d.Handle(&server.Session{}, "INCR", [][]byte{[]byte("a")})
	}
	d.Handle(&server.Session{}, "EXPIRE", [][]byte{[]byte("a"), []byte("3600")})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %s", err)
	}

	m2, d2 := managerFor(t, dir)
	if err := m2.Recover(d2); err != nil {
		t.Fatalf("Recover after restart: %s", err)
	}
	defer m2.Close()

	v, err := d2.Store.Get("a")
	if err != nil || string(v) != "6" {
		t.Fatalf("Get after recovery: v=%s err=%v", v, err)
	}
	if ttl := d2.Store.TTL("a"); ttl <= 0 || ttl > 3600 {
		t.Fatalf("TTL after recovery: got %d, want in (0, 3600]", ttl)
	}
}

// TestRecoverPrefersAOF checks the recovery order: with both files
// present, the AOF is authoritative and the RDB is ignored.
func TestRecoverPrefersAOF(t *testing.T) {
	dir := t.TempDir()

	m, d := managerFor(t, dir)
	if err := m.Recover(d); err != nil {
		t.Fatalf("Recover: %s", err)
	}
	d.Handle(&server.Session{}, "SET", [][]byte{[]byte("from"), []byte("aof")})
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %s", err)
	}
	d.Handle(&server.Session{}, "SET", [][]byte{[]byte("after"), []byte("snapshot")})
	m.Close()

	m2, d2 := managerFor(t, dir)
	if err := m2.Recover(d2); err != nil {
		t.Fatalf("Recover: %s", err)
	}
	defer m2.Close()

	if _, err := d2.Store.Get("after"); err != nil {
		t.Fatalf("a key logged after the snapshot must survive via the AOF: %s", err)
	}
}

// TestRewriteCompacts checks that a rewritten AOF replays to the same
// state in fewer records.
func TestRewriteCompacts(t *testing.T) {
	dir := t.TempDir()

	m, d := managerFor(t, dir)
	if err := m.Recover(d); err != nil {
		t.Fatalf("Recover: %s", err)
	}
	d.Handle(&server.Session{}, "SET", [][]byte{[]byte("a"), []byte("0")})
	for i := 0; i < 10; i++ {
		d.Handle(&server.Session{}, "INCR", [][]byte{[]byte("a")})
	}
	d.Handle(&server.Session{}, "RPUSH", [][]byte{[]byte("l"), []byte("x"), []byte("y")})

	if err := m.Rewrite(); err != nil {
		t.Fatalf("Rewrite: %s", err)
	}
	m.Close()

	st := store.New(0)
	d2 := &server.Dispatcher{Store: st}
	n, err := aof.Replay(filepath.Join(dir, "test.aof"), d2.Apply)
	if err != nil {
		t.Fatalf("Replay of the rewritten AOF: %s", err)
	}
	if n != 2 {
		t.Fatalf("rewritten AOF should hold one command per key, got %d", n)
	}

	v, err := st.Get("a")
	if err != nil || string(v) != "10" {
		t.Fatalf("Get after rewritten replay: v=%s err=%v", v, err)
	}
	list, err := st.LRange("l", 0, -1)
	if err != nil || len(list) != 2 || string(list[0]) != "x" {
		t.Fatalf("LRange after rewritten replay: %q err=%v", list, err)
	}
}

func TestShouldSaveRules(t *testing.T) {
	st := store.New(0)
	m := New(Config{
		RDBEnabled: true,
		SaveRules:  []SaveRule{{Changes: 2, Seconds: 0}},
	}, st)

	if m.shouldSave() {
		t.Fatalf("no changes yet, shouldSave must be false")
	}
	st.Set("a", []byte("1"), store.SetOptions{})
	st.Set("b", []byte("2"), store.SetOptions{})
	if !m.shouldSave() {
		t.Fatalf("two changes accumulated, shouldSave must fire")
	}
}
