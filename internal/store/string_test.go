package store

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/go-test/deep"
)

func TestSetGet(t *testing.T) {
	s := New(0)

	ok, err := s.Set("k", []byte("v"), SetOptions{})
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%s", ok, err)
	}

	got, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if diff := deep.Equal(got, []byte("v")); diff != nil {
		t.Fatalf("Get: %v", diff)
	}

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}
}

func TestSetNXXX(t *testing.T) {
	s := New(0)

	ok, err := s.Set("k", []byte("v1"), SetOptions{XX: true})
	if err != nil {
		t.Fatalf("Set XX on missing: %s", err)
	}
	if ok {
		t.Fatalf("Set XX on missing key should not succeed")
	}

	ok, err = s.Set("k", []byte("v1"), SetOptions{NX: true})
	if err != nil || !ok {
		t.Fatalf("Set NX on missing key: ok=%v err=%s", ok, err)
	}

	ok, err = s.Set("k", []byte("v2"), SetOptions{NX: true})
	if err != nil {
		t.Fatalf("Set NX on existing: %s", err)
	}
	if ok {
		t.Fatalf("Set NX on existing key should not succeed")
	}
}

func TestIncrDecr(t *testing.T) {
	s := New(0)

	n, err := s.Incr("counter")
	if err != nil || n != 1 {
		t.Fatalf("Incr: n=%d err=%s", n, err)
	}

	n, err = s.IncrBy("counter", 9)
	if err != nil || n != 10 {
		t.Fatalf("IncrBy: n=%d err=%s", n, err)
	}

	n, err = s.Decr("counter")
	if err != nil || n != 9 {
		t.Fatalf("Decr: n=%d err=%s", n, err)
	}
}

func TestIncrOnNonInteger(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("not-a-number"), SetOptions{})

	if _, err := s.Incr("k"); !errors.Is(err, ErrNotInteger) {
		t.Fatalf("Incr on non-integer: want ErrNotInteger, got %v", err)
	}
}

func TestAppendAndStrlen(t *testing.T) {
	s := New(0)

	n, err := s.Append("k", []byte("foo"))
	if err != nil || n != 3 {
		t.Fatalf("Append: n=%d err=%s", n, err)
	}
	n, err = s.Append("k", []byte("bar"))
	if err != nil || n != 6 {
		t.Fatalf("Append: n=%d err=%s", n, err)
	}

	length, err := s.Strlen("k")
	if err != nil || length != 6 {
		t.Fatalf("Strlen: n=%d err=%s", length, err)
	}

	if length, err := s.Strlen("missing"); err != nil || length != 0 {
		t.Fatalf("Strlen missing: want 0,nil got %d,%v", length, err)
	}
}

// TestConcurrentIncr hammers one key from many goroutines; the stripe
// lock must make every increment land.
func TestConcurrentIncr(t *testing.T) {
	s := New(0)
	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := s.Incr("counter"); err != nil {
					t.Errorf("Incr: %s", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	v, err := s.Get("counter")
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if got, _ := strconv.Atoi(string(v)); got != workers*perWorker {
		t.Fatalf("final counter: got %d, want %d", got, workers*perWorker)
	}
}

func TestWrongType(t *testing.T) {
	s := New(0)
	s.LPush("list", [][]byte{[]byte("a")})

	if _, err := s.Get("list"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("Get on a list key: want ErrWrongType, got %v", err)
	}
}
