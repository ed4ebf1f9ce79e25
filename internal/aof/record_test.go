package aof

import (
	"bytes"
	"io"
	"testing"

	"github.com/go-test/deep"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	records := []Record{
		{Cmd: "SET", Args: [][]byte{[]byte("k"), []byte("v")}},
		{Cmd: "RPUSH", Args: [][]byte{[]byte("l"), []byte("a"), []byte("b")}},
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("Encode: %s", err)
		}
	}

	dec := NewDecoder(&buf)
	var got []Record
	for {
		r, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %s", err)
		}
		got = append(got, r)
	}

	if diff := deep.Equal(got, records); diff != nil {
		t.Fatalf("round trip mismatch: %v", diff)
	}
}

func TestDecodeTornTrailingRecord(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(Record{Cmd: "SET", Args: [][]byte{[]byte("k"), []byte("v")}}); err != nil {
		t.Fatalf("Encode: %s", err)
	}

	full := buf.Bytes()
	torn := append([]byte(nil), full...)
	torn = torn[:len(torn)-2] // chop the tail to simulate a crash mid-write

	dec := NewDecoder(bytes.NewReader(torn))
	if _, err := dec.Decode(); err != io.EOF {
		t.Fatalf("Decode of a torn record: want io.EOF, got %v", err)
	}
}
