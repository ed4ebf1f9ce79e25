// Package aof implements the append-only command log: an ordered log of
// the verbatim mutator commands that committed successfully, replayed on
// startup and consumed by AOF rewrite. Records are length-prefixed
// gob-encoded blobs over an io.Writer/io.Reader pair, tolerant of a torn
// trailing record.
package aof

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/mshaverdo/assert"
)

// readBufferSize bounds how much the decoder pulls from disk per refill;
// bigger buffers trade memory for fewer syscalls.
const readBufferSize = 4096

// Record is one logged mutator invocation: the verb plus its positional
// arguments, exactly as authorized and validated before execution.
type Record struct {
	Cmd  string
	Args [][]byte
}

// Encoder writes length-prefixed, gob-encoded Records to an underlying
// writer (typically a *bufio.Writer wrapping the AOF file).
type Encoder struct {
	w   io.Writer
	buf bytes.Buffer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode appends one record: an 8-byte little-endian length followed by
// that many bytes of gob-encoded payload.
func (e *Encoder) Encode(rec Record) error {
	e.buf.Reset()
	if err := gob.NewEncoder(&e.buf).Encode(rec); err != nil {
		return err
	}

	if err := binary.Write(e.w, binary.LittleEndian, uint64(e.buf.Len())); err != nil {
		return err
	}

	n, err := e.w.Write(e.buf.Bytes())
	if err != nil {
		return err
	}
	if n != e.buf.Len() {
		return fmt.Errorf("aof: short write: only %d of %d bytes written", n, e.buf.Len())
	}
	return nil
}

// Decoder reads length-prefixed gob Records back out, one at a time.
type Decoder struct {
	r   io.Reader
	buf *bytes.Buffer
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: bytes.NewBuffer(nil)}
}

const lenSize = 8

// Decode reads the next Record. It returns io.EOF both on a clean end of
// stream and on a truncated trailing record (a partial length prefix or a
// partial payload): a power failure mid-append leaves at most one broken
// record at the tail, and the AOF simply stops replaying there.
func (d *Decoder) Decode() (Record, error) {
	if err := d.fill(lenSize); err != nil {
		return Record{}, err
	}

	var size uint64
	binary.Read(d.buf, binary.LittleEndian, &size)

	if err := d.fill(int(size)); err != nil {
		return Record{}, io.EOF
	}

	payload := make([]byte, size)
	n, _ := d.buf.Read(payload)
	assert.True(n == int(size), "aof: short read from internal buffer")

	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("aof: decoding record: %w", err)
	}
	return rec, nil
}

// fill tops up d.buf until it holds at least need bytes or the underlying
// reader is exhausted.
func (d *Decoder) fill(need int) error {
	for d.buf.Len() < need {
		_, err := io.CopyN(d.buf, d.r, readBufferSize)
		if err == io.EOF {
			if d.buf.Len() < need {
				return io.EOF
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}
