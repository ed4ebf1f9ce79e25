package server

import (
	"errors"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func init() {
	register(command{name: "HSET", minArgs: 3, maxArgs: -1, mutator: true, fn: cmdHSet})
	register(command{name: "HGET", minArgs: 2, maxArgs: 2, fn: cmdHGet})
	register(command{name: "HGETALL", minArgs: 1, maxArgs: 1, fn: cmdHGetAll})
	register(command{name: "HDEL", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdHDel})
	register(command{name: "HEXISTS", minArgs: 2, maxArgs: 2, fn: cmdHExists})
	register(command{name: "HKEYS", minArgs: 1, maxArgs: 1, fn: cmdHKeys})
	register(command{name: "HVALS", minArgs: 1, maxArgs: 1, fn: cmdHVals})
	register(command{name: "HLEN", minArgs: 1, maxArgs: 1, fn: cmdHLen})
}

func cmdHSet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args)%2 != 1 {
		return nil, ErrSyntax
	}
	fields := make(map[string][]byte, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		fields[bstr(args[i])] = args[i+1]
	}
	n, err := d.Store.HSet(bstr(args[0]), fields)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdHGet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	v, err := d.Store.HGet(bstr(args[0]), bstr(args[1]))
	if errors.Is(err, store.ErrNotFound) {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return BulkBytes(v), nil
}

func cmdHGetAll(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	flat, err := d.Store.HGetAll(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return BulkArray(flat), nil
}

func cmdHDel(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.HDel(bstr(args[0]), bstrs(args[1:]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdHExists(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	ok, err := d.Store.HExists(bstr(args[0]), bstr(args[1]))
	if err != nil {
		return nil, err
	}
	return Bool(ok), nil
}

func cmdHKeys(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	keys, err := d.Store.HKeys(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return StringArray(keys), nil
}

func cmdHVals(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	vals, err := d.Store.HVals(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return BulkArray(vals), nil
}

func cmdHLen(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.HLen(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}
