package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func init() {
	register(command{name: "ZADD", minArgs: 3, maxArgs: -1, mutator: true, fn: cmdZAdd})
	register(command{name: "ZREM", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdZRem})
	register(command{name: "ZCARD", minArgs: 1, maxArgs: 1, fn: cmdZCard})
	register(command{name: "ZSCORE", minArgs: 2, maxArgs: 2, fn: cmdZScore})
	register(command{name: "ZINCRBY", minArgs: 3, maxArgs: 3, mutator: true, fn: cmdZIncrBy})
	register(command{name: "ZCOUNT", minArgs: 3, maxArgs: 3, fn: cmdZCount})
	register(command{name: "ZRANK", minArgs: 2, maxArgs: 2, fn: cmdZRank})
	register(command{name: "ZREVRANK", minArgs: 2, maxArgs: 2, fn: cmdZRevRank})
	register(command{name: "ZRANGE", minArgs: 3, maxArgs: 4, fn: cmdZRange})
	register(command{name: "ZREVRANGE", minArgs: 3, maxArgs: 4, fn: cmdZRevRange})
}

func cmdZAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args)%2 != 1 {
		return nil, ErrSyntax
	}
	scores := make(map[string]float64, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := parseFloatArg(args[i])
		if err != nil {
			return nil, store.ErrNotFloat
		}
		scores[bstr(args[i+1])] = score
	}
	n, err := d.Store.ZAdd(bstr(args[0]), scores)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdZRem(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.ZRem(bstr(args[0]), bstrs(args[1:]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdZCard(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.ZCard(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdZScore(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	score, err := d.Store.ZScore(bstr(args[0]), bstr(args[1]))
	if errors.Is(err, store.ErrNotFound) {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return BulkString(formatScore(score)), nil
}

func cmdZIncrBy(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	delta, err := parseFloatArg(args[1])
	if err != nil {
		return nil, store.ErrNotFloat
	}
	result, err := d.Store.ZIncrBy(bstr(args[0]), bstr(args[2]), delta)
	if err != nil {
		return nil, err
	}
	return BulkString(formatScore(result)), nil
}

func cmdZCount(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	min, err1 := parseFloatArg(args[1])
	max, err2 := parseFloatArg(args[2])
	if err1 != nil || err2 != nil {
		return nil, store.ErrNotFloat
	}
	n, err := d.Store.ZCount(bstr(args[0]), min, max)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdZRank(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	rank, err := d.Store.ZRank(bstr(args[0]), bstr(args[1]))
	if errors.Is(err, store.ErrNotFound) {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Int(rank), nil
}

func cmdZRevRank(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	rank, err := d.Store.ZRevRank(bstr(args[0]), bstr(args[1]))
	if errors.Is(err, store.ErrNotFound) {
		return Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Int(rank), nil
}

func cmdZRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return zRange(d, args, d.Store.ZRange)
}

func cmdZRevRange(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return zRange(d, args, d.Store.ZRevRange)
}

func zRange(d *Dispatcher, args [][]byte, rangeFn func(key string, start, stop int) ([]store.ZMember, error)) (Reply, error) {
	start, err1 := parseIntArg(args[1])
	stop, err2 := parseIntArg(args[2])
	if err1 != nil || err2 != nil {
		return nil, ErrSyntax
	}
	withScores := false
	if len(args) == 4 {
		if strings.ToUpper(bstr(args[3])) != "WITHSCORES" {
			return nil, ErrSyntax
		}
		withScores = true
	}

	members, err := rangeFn(bstr(args[0]), start, stop)
	if err != nil {
		return nil, err
	}

	if !withScores {
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.Member
		}
		return StringArray(names), nil
	}

	arr := make(Array, 0, len(members)*2)
	for _, m := range members {
		arr = append(arr, BulkString(m.Member), BulkString(formatScore(m.Score)))
	}
	return arr, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
