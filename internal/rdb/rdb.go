// Package rdb implements the snapshot image: a self-describing
// serialization of the entire keyspace plus per-key expirations, written
// atomically (temp file + rename) and fully replacing live state on load.
//
// The on-disk layout is magic bytes, a version byte, a gob-encoded body,
// then a CRC32 checksum trailer. gob already tags each Slot's Kind field
// as the per-type discriminator, so the body doesn't need a hand-rolled
// section format on top of it.
package rdb

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/mshaverdo/keelhaul/internal/store"
)

var magic = [4]byte{'K', 'D', 'B', 0}

const version = byte(1)

// body is the gob-encoded payload: the full keyspace.
type body struct {
	Slots map[string]*store.Slot
}

// Save atomically writes every live key in s to path: it's fully rendered
// into a temp file in the same directory first, then renamed into place,
// so a crash mid-write never corrupts the previous snapshot.
func Save(path string, s *store.Store) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("rdb: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if err := encode(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("rdb: fsyncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("rdb: closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rdb: renaming into place: %w", err)
	}
	return nil
}

// EncodeBytes renders s into the same layout Save writes to a file, for
// transfer over a connection rather than to disk: the full-resync leg of
// replication streams this directly to a connecting replica instead of
// reading a snapshot file back off disk.
func EncodeBytes(s *store.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBytes parses the layout EncodeBytes/Save produce from an in-memory
// buffer, the replica-side counterpart used after a full resync transfer.
func DecodeBytes(data []byte) (map[string]*store.Slot, error) {
	if len(data) < len(magic)+1+4 {
		return nil, fmt.Errorf("rdb: payload is truncated")
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("rdb: payload has bad magic")
	}
	gotVersion := data[len(magic)]
	if gotVersion != version {
		return nil, fmt.Errorf("rdb: payload has unsupported version %d", gotVersion)
	}

	payload := data[len(magic)+1 : len(data)-4]
	wantChecksum := crc32.ChecksumIEEE(payload)
	gotChecksum := readUint32(data[len(data)-4:])
	if gotChecksum != wantChecksum {
		return nil, fmt.Errorf("rdb: payload failed checksum verification")
	}

	var b body
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&b); err != nil {
		return nil, fmt.Errorf("rdb: decoding body: %w", err)
	}
	return b.Slots, nil
}

func encode(w io.Writer, s *store.Store) error {
	slots := make(map[string]*store.Slot)
	s.Snapshot(func(key string, slot *store.Slot) {
		slots[key] = slot
	})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(body{Slots: slots}); err != nil {
		return fmt.Errorf("rdb: encoding body: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{version}); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}

	checksum := crc32.ChecksumIEEE(buf.Bytes())
	return writeUint32(w, checksum)
}

// Load reads an RDB file and returns every key's Slot, ready to hand to
// Store.LoadSnapshot. It returns (nil, nil) if path does not exist, so
// callers can treat "no snapshot yet" the same as an empty instance.
func Load(path string) (map[string]*store.Slot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rdb: reading %s: %w", path, err)
	}

	if len(data) < len(magic)+1+4 {
		return nil, fmt.Errorf("rdb: %s is truncated", path)
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("rdb: %s has bad magic", path)
	}
	gotVersion := data[len(magic)]
	if gotVersion != version {
		return nil, fmt.Errorf("rdb: %s has unsupported version %d", path, gotVersion)
	}

	payload := data[len(magic)+1 : len(data)-4]
	wantChecksum := crc32.ChecksumIEEE(payload)
	gotChecksum := readUint32(data[len(data)-4:])
	if gotChecksum != wantChecksum {
		return nil, fmt.Errorf("rdb: %s failed checksum verification", path)
	}

	var b body
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&b); err != nil {
		return nil, fmt.Errorf("rdb: decoding body: %w", err)
	}
	return b.Slots, nil
}

func writeUint32(w io.Writer, v uint32) error {
	_, err := w.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
	return err
}

func readUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
