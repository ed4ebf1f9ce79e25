package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/mshaverdo/keelhaul/internal/store"
)

func parseInt(b []byte) (int64, error) {
	return strconv.ParseInt(string(b), 10, 64)
}

func parseIntArg(b []byte) (int, error) {
	n, err := parseInt(b)
	return int(n), err
}

func parseFloatArg(b []byte) (float64, error) {
	return strconv.ParseFloat(string(b), 64)
}

func bstr(b []byte) string { return string(b) }

func bstrs(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

// parseSetOptions parses the modifier tail of SET k v [NX|XX] [EX sec|PX
// msec] [KEEPTTL].
func parseSetOptions(args [][]byte) (store.SetOptions, error) {
	var opts store.SetOptions
	i := 0
	for i < len(args) {
		switch strings.ToUpper(bstr(args[i])) {
		case "NX":
			opts.NX = true
			i++
		case "XX":
			opts.XX = true
			i++
		case "KEEPTTL":
			opts.KeepTTL = true
			i++
		case "EX":
			if i+1 >= len(args) {
				return opts, ErrSyntax
			}
			secs, err := parseInt(args[i+1])
			if err != nil {
				return opts, ErrSyntax
			}
			opts.TTL = time.Duration(secs) * time.Second
			i += 2
		case "PX":
			if i+1 >= len(args) {
				return opts, ErrSyntax
			}
			ms, err := parseInt(args[i+1])
			if err != nil {
				return opts, ErrSyntax
			}
			opts.TTL = time.Duration(ms) * time.Millisecond
			i += 2
		default:
			return opts, ErrSyntax
		}
	}
	if opts.NX && opts.XX {
		return opts, ErrSyntax
	}
	return opts, nil
}

// parseCount parses an optional trailing "COUNT n" pair, returning
// defaultN if absent.
func parseCount(args [][]byte, defaultN int) (int, error) {
	if len(args) == 0 {
		return defaultN, nil
	}
	if len(args) != 2 || strings.ToUpper(bstr(args[0])) != "COUNT" {
		return 0, ErrSyntax
	}
	return parseIntArg(args[1])
}

// parseStreamID parses a stream id token: "ms-seq", the bare "*" auto-id
// marker (returned as auto=true so the caller knows to auto-assign), or the
// "-"/"+" range bounds.
func parseStreamID(tok string, minBound, maxBound store.StreamID) (id store.StreamID, auto bool, err error) {
	switch tok {
	case "*":
		return store.StreamID{}, true, nil
	case "-":
		return minBound, false, nil
	case "+":
		return maxBound, false, nil
	}
	parts := strings.SplitN(tok, "-", 2)
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return id, false, ErrSyntax
	}
	seq := int64(0)
	if len(parts) == 2 {
		seq, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return id, false, ErrSyntax
		}
	}
	return store.StreamID{Ms: ms, Seq: seq}, false, nil
}

var (
	streamIDMin = store.StreamID{Ms: 0, Seq: 0}
	streamIDMax = store.StreamID{Ms: 1<<63 - 1, Seq: 1<<63 - 1}
)
