package store

import (
	"fmt"
	"time"
)

//go:generate stringer -type=Kind

// Kind tags the payload a Slot carries. A present key has exactly one Kind
// for its whole lifetime; changing type always goes through delete-then-create.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindHash
	KindSet
	KindZSet
	KindStream
	KindBitmap
	KindGeo
	KindVector
	KindTimeSeries
)

var kindNames = [...]string{
	KindString:     "string",
	KindList:       "list",
	KindHash:       "hash",
	KindSet:        "set",
	KindZSet:       "zset",
	KindStream:     "stream",
	KindBitmap:     "bitmap",
	KindGeo:        "geo",
	KindVector:     "vector",
	KindTimeSeries: "timeseries",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// StreamID is a stream entry identifier: millisecond wall-clock plus a
// sequence number that breaks ties within the same millisecond.
type StreamID struct {
	Ms  int64
	Seq int64
}

func (id StreamID) String() string {
	return fmt.Sprintf("%d-%d", id.Ms, id.Seq)
}

// Less reports whether id sorts strictly before other.
func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

// StreamEntry is one (id, field->value) record appended to a stream.
type StreamEntry struct {
	ID     StreamID
	Fields map[string]string
}

// GeoPoint is a member's coordinates in the geo type.
type GeoPoint struct {
	Lon, Lat float64
}

// TSSample is one (timestamp, value) point in a time series.
type TSSample struct {
	Timestamp int64
	Value     float64
}

// Slot is the typed value plus metadata stored under one key. Only the
// field matching Kind is meaningful; the rest are left zero. Every field
// is exported so the encoding/gob codec used by the RDB and AOF packages
// can round-trip it without custom Marshal code.
type Slot struct {
	Kind     Kind
	ExpireAt time.Time // zero value means "no expiry"

	Str  []byte
	List [][]byte

	Hash map[string][]byte
	Set  map[string]struct{}

	ZSet map[string]float64

	Stream []StreamEntry

	Bitmap []byte

	Geo map[string]GeoPoint

	Vector []float32

	TimeSeries []TSSample
}

// expired reports whether the slot's expiration, if any, is in the past
// relative to now. A zero ExpireAt means the key never expires.
func (s *Slot) expired(now time.Time) bool {
	return s != nil && !s.ExpireAt.IsZero() && !s.ExpireAt.After(now)
}

// empty reports whether a collection-typed slot has become empty and must
// be deleted per the "empty collections are not retained" invariant.
func (s *Slot) empty() bool {
	switch s.Kind {
	case KindList:
		return len(s.List) == 0
	case KindHash:
		return len(s.Hash) == 0
	case KindSet:
		return len(s.Set) == 0
	case KindZSet:
		return len(s.ZSet) == 0
	case KindStream:
		return len(s.Stream) == 0
	default:
		return false
	}
}

func newSlot(kind Kind) *Slot {
	s := &Slot{Kind: kind}
	switch kind {
	case KindHash:
		s.Hash = make(map[string][]byte)
	case KindSet:
		s.Set = make(map[string]struct{})
	case KindZSet:
		s.ZSet = make(map[string]float64)
	case KindGeo:
		s.Geo = make(map[string]GeoPoint)
	}
	return s
}
