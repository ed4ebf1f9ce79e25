package server

import (
	"strconv"
	"strings"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func init() {
	register(command{name: "VECADD", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdVecAdd})
	register(command{name: "VECGET", minArgs: 1, maxArgs: 1, fn: cmdVecGet})
	register(command{name: "VECSEARCH", minArgs: 2, maxArgs: -1, fn: cmdVecSearch})
}

func parseVector(toks [][]byte) ([]float32, error) {
	v := make([]float32, len(toks))
	for i, tok := range toks {
		f, err := strconv.ParseFloat(bstr(tok), 32)
		if err != nil {
			return nil, store.ErrNotFloat
		}
		v[i] = float32(f)
	}
	return v, nil
}

func cmdVecAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	v, err := parseVector(args[1:])
	if err != nil {
		return nil, err
	}
	if err := d.Store.VecAdd(bstr(args[0]), v); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdVecGet(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	v, err := d.Store.VecGet(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	strs := make([]string, len(v))
	for i, f := range v {
		strs[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return StringArray(strs), nil
}

// cmdVecSearch implements VECSEARCH v1 ... v_d k_best [metric]: the query
// vector's components, the number of hits wanted, and optionally one of
// cosine/euclidean/dot (default cosine). The metric token is recognized by
// name from the tail, which is unambiguous since vector components are
// numeric.
func cmdVecSearch(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	rest := args
	metric := store.MetricCosine
	switch store.VecMetric(strings.ToLower(bstr(rest[len(rest)-1]))) {
	case store.MetricCosine, store.MetricEuclidean, store.MetricDot:
		metric = store.VecMetric(strings.ToLower(bstr(rest[len(rest)-1])))
		rest = rest[:len(rest)-1]
	}
	if len(rest) < 2 {
		return nil, ErrSyntax
	}
	kBest, err := parseIntArg(rest[len(rest)-1])
	if err != nil {
		return nil, ErrSyntax
	}
	query, err := parseVector(rest[:len(rest)-1])
	if err != nil {
		return nil, err
	}

	results := d.Store.VecSearch(query, metric, kBest)
	arr := make(Array, 0, len(results))
	for _, r := range results {
		arr = append(arr, Array{BulkString(r.Key), BulkString(formatScore(r.Score))})
	}
	return arr, nil
}
