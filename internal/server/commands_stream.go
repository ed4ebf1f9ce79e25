package server

import "github.com/mshaverdo/keelhaul/internal/store"

func init() {
	register(command{name: "XADD", minArgs: 4, maxArgs: -1, mutator: true, fn: cmdXAdd})
	register(command{name: "XRANGE", minArgs: 3, maxArgs: 5, fn: cmdXRange})
	register(command{name: "XREVRANGE", minArgs: 3, maxArgs: 5, fn: cmdXRevRange})
	register(command{name: "XLEN", minArgs: 1, maxArgs: 1, fn: cmdXLen})
	register(command{name: "XREAD", minArgs: 2, maxArgs: -1, fn: cmdXRead})
}

func entriesToArray(entries []store.StreamEntry) Reply {
	arr := make(Array, 0, len(entries))
	for _, e := range entries {
		fields := make(Array, 0, len(e.Fields)*2)
		for field, value := range e.Fields {
			fields = append(fields, BulkString(field), BulkString(value))
		}
		arr = append(arr, Array{BulkString(e.ID.String()), fields})
	}
	return arr
}

func cmdXAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args)%2 != 0 {
		return nil, ErrSyntax
	}
	idTok := bstr(args[1])
	var id *store.StreamID
	if idTok != "*" {
		parsed, _, err := parseStreamID(idTok, streamIDMin, streamIDMax)
		if err != nil {
			return nil, err
		}
		id = &parsed
	}

	fields := make(map[string]string, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields[bstr(args[i])] = bstr(args[i+1])
	}

	assigned, err := d.Store.XAdd(bstr(args[0]), id, fields)
	if err != nil {
		return nil, err
	}
	if id == nil {
		rewritten := append([][]byte(nil), args...)
		rewritten[1] = []byte(assigned.String())
		sess.RewriteForPropagation(rewritten...)
	}
	return BulkString(assigned.String()), nil
}

func cmdXRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, _, err := parseStreamID(bstr(args[1]), streamIDMin, streamIDMax)
	if err != nil {
		return nil, err
	}
	end, _, err := parseStreamID(bstr(args[2]), streamIDMin, streamIDMax)
	if err != nil {
		return nil, err
	}
	count, err := parseCount(args[3:], 0)
	if err != nil {
		return nil, err
	}
	entries, err := d.Store.XRange(bstr(args[0]), start, end, count)
	if err != nil {
		return nil, err
	}
	return entriesToArray(entries), nil
}

func cmdXRevRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, _, err := parseStreamID(bstr(args[2]), streamIDMin, streamIDMax)
	if err != nil {
		return nil, err
	}
	end, _, err := parseStreamID(bstr(args[1]), streamIDMin, streamIDMax)
	if err != nil {
		return nil, err
	}
	count, err := parseCount(args[3:], 0)
	if err != nil {
		return nil, err
	}
	entries, err := d.Store.XRevRange(bstr(args[0]), start, end, count)
	if err != nil {
		return nil, err
	}
	return entriesToArray(entries), nil
}

func cmdXLen(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.XLen(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

// cmdXRead implements XREAD streams k1:id1 k2:id2 ... [COUNT n], one
// positional "key:id" arg per stream. The real Redis STREAMS
// keyword-then-two-lists shape needs dynamic splitting the static
// registry arity check can't express, so the key and its cursor travel
// together.
func cmdXRead(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args) < 2 || bstr(args[0]) != "streams" && bstr(args[0]) != "STREAMS" {
		return nil, ErrSyntax
	}
	rest := args[1:]
	count := 0
	if n := len(rest); n >= 2 && (bstr(rest[n-2]) == "COUNT" || bstr(rest[n-2]) == "count") {
		var err error
		count, err = parseIntArg(rest[n-1])
		if err != nil {
			return nil, ErrSyntax
		}
		rest = rest[:n-2]
	}

	results := make(Array, 0, len(rest))
	for _, tok := range rest {
		parts := splitOnce(bstr(tok), ':')
		if len(parts) != 2 {
			return nil, ErrSyntax
		}
		after, _, err := parseStreamID(parts[1], streamIDMin, streamIDMax)
		if err != nil {
			return nil, err
		}
		entries, err := d.Store.XRead(parts[0], after, count)
		if err != nil {
			return nil, err
		}
		results = append(results, Array{BulkString(parts[0]), entriesToArray(entries)})
	}
	return results, nil
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
