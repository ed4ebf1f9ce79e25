package server

import (
	"errors"
	"fmt"

	"github.com/mshaverdo/keelhaul/internal/store"
)

// Dispatcher-level sentinel errors: the part of the error surface that
// isn't a type-operation concern (store/errors.go owns those).
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSyntax         = errors.New("wrong number of arguments or syntax error")
	ErrNoAuth         = errors.New("Authentication required")
	ErrPermission     = errors.New("Permission denied")
	ErrReadOnly       = errors.New("You can't write against a read only replica")
	ErrOutOfMemory    = errors.New("command not allowed when used memory > 'maxmemory'")
)

// toErr renders any error returned by a handler into a wire-tagged Err
// reply. errors.Is rather than equality, so handlers may wrap sentinels
// with extra context.
func toErr(cmd string, err error) Err {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return Err{Tag: "WRONGTYPE", Msg: "Operation against a key holding the wrong kind of value"}
	case errors.Is(err, store.ErrNotInteger):
		return Err{Tag: "ERR", Msg: "value is not an integer or out of range"}
	case errors.Is(err, store.ErrNotFloat):
		return Err{Tag: "ERR", Msg: "value is not a valid float"}
	case errors.Is(err, store.ErrOverflow):
		return Err{Tag: "ERR", Msg: "increment or decrement would overflow"}
	case errors.Is(err, store.ErrOutOfRange):
		return Err{Tag: "ERR", Msg: "index out of range"}
	case errors.Is(err, store.ErrSyntax), errors.Is(err, ErrSyntax):
		return Err{Tag: "ERR", Msg: "syntax error"}
	case errors.Is(err, store.ErrStreamIDNotMonotonic):
		return Err{Tag: "ERR", Msg: store.ErrStreamIDNotMonotonic.Error()}
	case errors.Is(err, store.ErrOutOfOrderTimestamp):
		return Err{Tag: "ERR", Msg: store.ErrOutOfOrderTimestamp.Error()}
	case errors.Is(err, store.ErrGeoRange):
		return Err{Tag: "ERR", Msg: store.ErrGeoRange.Error()}
	case errors.Is(err, store.ErrVectorDim):
		return Err{Tag: "ERR", Msg: store.ErrVectorDim.Error()}
	case errors.Is(err, ErrUnknownCommand):
		return Err{Tag: "ERR", Msg: fmt.Sprintf("unknown command '%s'", cmd)}
	case errors.Is(err, ErrNoAuth):
		return Err{Tag: "NOAUTH", Msg: ErrNoAuth.Error()}
	case errors.Is(err, ErrPermission):
		return Err{Tag: "NOPERM", Msg: ErrPermission.Error()}
	case errors.Is(err, ErrReadOnly):
		return Err{Tag: "READONLY", Msg: ErrReadOnly.Error()}
	case errors.Is(err, ErrOutOfMemory):
		return Err{Tag: "OOM", Msg: ErrOutOfMemory.Error()}
	default:
		return Err{Tag: "ERR", Msg: err.Error()}
	}
}
