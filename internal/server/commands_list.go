package server

import "github.com/mshaverdo/keelhaul/internal/store"

func init() {
	register(command{name: "LPUSH", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdLPush})
	register(command{name: "RPUSH", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdRPush})
	register(command{name: "LPOP", minArgs: 1, maxArgs: 2, mutator: true, fn: cmdLPop})
	register(command{name: "RPOP", minArgs: 1, maxArgs: 2, mutator: true, fn: cmdRPop})
	register(command{name: "LRANGE", minArgs: 3, maxArgs: 3, fn: cmdLRange})
	register(command{name: "LINDEX", minArgs: 2, maxArgs: 2, fn: cmdLIndex})
	register(command{name: "LSET", minArgs: 3, maxArgs: 3, mutator: true, fn: cmdLSet})
	register(command{name: "LTRIM", minArgs: 3, maxArgs: 3, mutator: true, fn: cmdLTrim})
	register(command{name: "LLEN", minArgs: 1, maxArgs: 1, fn: cmdLLen})
}

func cmdLPush(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.LPush(bstr(args[0]), args[1:])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdRPush(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.RPush(bstr(args[0]), args[1:])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdLPop(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return listPop(d.Store.LPop, args)
}

func cmdRPop(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return listPop(d.Store.RPop, args)
}

func listPop(pop func(key string, count int) ([][]byte, error), args [][]byte) (Reply, error) {
	count := 1
	explicit := false
	if len(args) == 2 {
		var err error
		count, err = parseIntArg(args[1])
		if err != nil {
			return nil, store.ErrNotInteger
		}
		explicit = true
	}

	result, err := pop(bstr(args[0]), count)
	if err != nil {
		return nil, err
	}

	if !explicit {
		if len(result) == 0 {
			return Nil, nil
		}
		return BulkBytes(result[0]), nil
	}
	return BulkArray(result), nil
}

func cmdLRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, err1 := parseIntArg(args[1])
	stop, err2 := parseIntArg(args[2])
	if err1 != nil || err2 != nil {
		return nil, ErrSyntax
	}
	result, err := d.Store.LRange(bstr(args[0]), start, stop)
	if err != nil {
		return nil, err
	}
	return BulkArray(result), nil
}

func cmdLIndex(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	index, err := parseIntArg(args[1])
	if err != nil {
		return nil, ErrSyntax
	}
	v, err := d.Store.LIndex(bstr(args[0]), index)
	if err == store.ErrNotFound || err == store.ErrOutOfRange {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return BulkBytes(v), nil
}

func cmdLSet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	index, err := parseIntArg(args[1])
	if err != nil {
		return nil, ErrSyntax
	}
	if err := d.Store.LSet(bstr(args[0]), index, args[2]); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdLTrim(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, err1 := parseIntArg(args[1])
	stop, err2 := parseIntArg(args[2])
	if err1 != nil || err2 != nil {
		return nil, ErrSyntax
	}
	if err := d.Store.LTrim(bstr(args[0]), start, stop); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdLLen(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.LLen(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}
