package server

import (
	"strconv"
	"time"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func init() {
	register(command{name: "TSADD", minArgs: 2, maxArgs: 3, mutator: true, fn: cmdTSAdd})
	register(command{name: "TSGET", minArgs: 1, maxArgs: 1, fn: cmdTSGet})
	register(command{name: "TSRANGE", minArgs: 3, maxArgs: 4, fn: cmdTSRange})
	register(command{name: "TSAGGREGATE", minArgs: 5, maxArgs: 5, fn: cmdTSAggregate})
}

func tsSampleReply(s store.TSSample) Reply {
	return Array{Int(s.Timestamp), BulkString(formatScore(s.Value))}
}

// cmdTSAdd implements TSADD k value [timestamp]. When the timestamp is
// omitted it defaults to the current wall clock, and the materialized value
// is substituted into the propagated argument vector so AOF replay and
// replicas append the sample at the same instant the primary did.
func cmdTSAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	value, err := parseFloatArg(args[1])
	if err != nil {
		return nil, store.ErrNotFloat
	}

	var ts int64
	explicit := len(args) == 3
	if explicit {
		ts, err = parseInt(args[2])
		if err != nil {
			return nil, store.ErrNotInteger
		}
	} else {
		ts = time.Now().Unix()
	}

	if err := d.Store.TSAdd(bstr(args[0]), ts, value); err != nil {
		return nil, err
	}
	if !explicit {
		sess.RewriteForPropagation(args[0], args[1], []byte(strconv.FormatInt(ts, 10)))
	}
	return OK, nil
}

func cmdTSGet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	sample, err := d.Store.TSGet(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return tsSampleReply(sample), nil
}

func cmdTSRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	start, err1 := parseInt(args[1])
	end, err2 := parseInt(args[2])
	if err1 != nil || err2 != nil {
		return nil, store.ErrNotInteger
	}
	count, err := parseCount(args[3:], 0)
	if err != nil {
		return nil, err
	}
	samples, err := d.Store.TSRange(bstr(args[0]), start, end, count)
	if err != nil {
		return nil, err
	}
	arr := make(Array, 0, len(samples))
	for _, s := range samples {
		arr = append(arr, tsSampleReply(s))
	}
	return arr, nil
}

func cmdTSAggregate(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	op := store.TSAggOp(bstr(args[1]))
	start, err1 := parseInt(args[2])
	end, err2 := parseInt(args[3])
	bucket, err3 := parseInt(args[4])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, store.ErrNotInteger
	}
	samples, err := d.Store.TSAggregate(bstr(args[0]), op, start, end, bucket)
	if err != nil {
		return nil, err
	}
	arr := make(Array, 0, len(samples))
	for _, s := range samples {
		arr = append(arr, tsSampleReply(s))
	}
	return arr, nil
}
