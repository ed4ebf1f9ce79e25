package store

import "errors"

// Sentinel errors surfaced by Type Operations. The command dispatcher maps
// these onto wire-level error tags; none of them carry a key or command name
// so callers are expected to wrap them with fmt.Errorf("%s: %w", ...) when
// more context is useful.
var (
	ErrNotFound             = errors.New("no such key")
	ErrWrongType            = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger           = errors.New("value is not an integer or out of range")
	ErrNotFloat             = errors.New("value is not a valid float")
	ErrOverflow             = errors.New("increment or decrement would overflow")
	ErrOutOfRange           = errors.New("index out of range")
	ErrSyntax               = errors.New("syntax error")
	ErrStreamIDNotMonotonic = errors.New("The ID specified in XADD is equal or smaller than the target stream top item")
	ErrOutOfOrderTimestamp  = errors.New("timestamp is older than the last sample")
	ErrGeoRange             = errors.New("invalid longitude,latitude pair")
	ErrVectorDim            = errors.New("vector dimension mismatch")
)
