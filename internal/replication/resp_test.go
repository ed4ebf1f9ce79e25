package replication

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/go-test/deep"
)

func TestCommandFrameRoundTrip(t *testing.T) {
	args := [][]byte{[]byte("k"), {0x00, 0x0d, 0x0a, 0xff}} // binary-safe payload
	frame := encodeCommand("SET", args)

	verb, gotArgs, n, err := readCommand(bufio.NewReader(bytes.NewReader(frame)))
	if err != nil {
		t.Fatalf("readCommand: %s", err)
	}
	if verb != "SET" {
		t.Fatalf("verb: got %q", verb)
	}
	if diff := deep.Equal(gotArgs, args); diff != nil {
		t.Fatalf("args: %v", diff)
	}
	if n != len(frame) {
		t.Fatalf("consumed %d bytes of a %d byte frame", n, len(frame))
	}
}

func TestBacklogWindow(t *testing.T) {
	b := newBacklog(8)

	b.append([]byte("aaaa"))
	b.append([]byte("bbbb"))

	data, ok := b.since(0)
	if !ok || string(data) != "aaaabbbb" {
		t.Fatalf("since(0): %q ok=%v", data, ok)
	}

	b.append([]byte("cccc")) // trims "aaaa" out of the 8-byte window

	if _, ok := b.since(0); ok {
		t.Fatalf("offset 0 fell out of the window and must not resolve")
	}
	data, ok = b.since(4)
	if !ok || string(data) != "bbbbcccc" {
		t.Fatalf("since(4): %q ok=%v", data, ok)
	}
	if b.offset() != 12 {
		t.Fatalf("offset: got %d, want 12", b.offset())
	}
}
