package server

import (
	"errors"
	"strconv"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func init() {
	register(command{name: "SET", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdSet})
	register(command{name: "GET", minArgs: 1, maxArgs: 1, fn: cmdGet})
	register(command{name: "GETSET", minArgs: 2, maxArgs: 2, mutator: true, fn: cmdGetSet})
	register(command{name: "APPEND", minArgs: 2, maxArgs: 2, mutator: true, fn: cmdAppend})
	register(command{name: "STRLEN", minArgs: 1, maxArgs: 1, fn: cmdStrlen})
	register(command{name: "GETRANGE", minArgs: 3, maxArgs: 3, fn: cmdGetRange})
	register(command{name: "SETRANGE", minArgs: 3, maxArgs: 3, mutator: true, fn: cmdSetRange})
	register(command{name: "INCR", minArgs: 1, maxArgs: 1, mutator: true, fn: cmdIncr})
	register(command{name: "DECR", minArgs: 1, maxArgs: 1, mutator: true, fn: cmdDecr})
	register(command{name: "INCRBY", minArgs: 2, maxArgs: 2, mutator: true, fn: cmdIncrBy})
	register(command{name: "INCRBYFLOAT", minArgs: 2, maxArgs: 2, mutator: true, fn: cmdIncrByFloat})
	register(command{name: "MGET", minArgs: 1, maxArgs: -1, fn: cmdMGet})
	register(command{name: "MSET", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdMSet})
	register(command{name: "MSETNX", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdMSetNx})
}

func cmdSet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	key, value := bstr(args[0]), args[1]
	opts, err := parseSetOptions(args[2:])
	if err != nil {
		return nil, err
	}
	ok, err := d.Store.Set(key, value, opts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Nil, nil
	}
	return OK, nil
}

func cmdGet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	v, err := d.Store.Get(bstr(args[0]))
	if errors.Is(err, store.ErrNotFound) {
		if d.Metrics != nil {
			d.Metrics.RecordKeyspaceMiss()
		}
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.Metrics != nil {
		d.Metrics.RecordKeyspaceHit()
	}
	return BulkBytes(v), nil
}

func cmdGetSet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	prev, err := d.Store.GetSet(bstr(args[0]), args[1])
	if errors.Is(err, store.ErrNotFound) {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return BulkBytes(prev), nil
}

func cmdAppend(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.Append(bstr(args[0]), args[1])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdStrlen(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.Strlen(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdGetRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, err := parseIntArg(args[1])
	if err != nil {
		return nil, ErrSyntax
	}
	end, err := parseIntArg(args[2])
	if err != nil {
		return nil, ErrSyntax
	}
	v, err := d.Store.GetRange(bstr(args[0]), start, end)
	if err != nil {
		return nil, err
	}
	return BulkBytes(v), nil
}

func cmdSetRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	offset, err := parseIntArg(args[1])
	if err != nil {
		return nil, ErrSyntax
	}
	n, err := d.Store.SetRange(bstr(args[0]), offset, args[2])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdIncr(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.Incr(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdDecr(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.Decr(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdIncrBy(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	delta, err := parseInt(args[1])
	if err != nil {
		return nil, store.ErrNotInteger
	}
	n, err := d.Store.IncrBy(bstr(args[0]), delta)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdIncrByFloat(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	delta, err := parseFloatArg(args[1])
	if err != nil {
		return nil, store.ErrNotFloat
	}
	n, err := d.Store.IncrByFloat(bstr(args[0]), delta)
	if err != nil {
		return nil, err
	}
	return BulkString(strconv.FormatFloat(n, 'g', -1, 64)), nil
}

func cmdMGet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	values := d.Store.MGet(bstrs(args))
	return BulkArray(values), nil
}

func cmdMSet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args)%2 != 0 {
		return nil, ErrSyntax
	}
	pairs := make(map[string][]byte, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[bstr(args[i])] = args[i+1]
	}
	d.Store.MSet(pairs)
	return OK, nil
}

func cmdMSetNx(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args)%2 != 0 {
		return nil, ErrSyntax
	}
	pairs := make(map[string][]byte, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs[bstr(args[i])] = args[i+1]
	}
	ok := d.Store.MSetNx(pairs)
	return Bool(ok), nil
}
