package persistence

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mshaverdo/keelhaul/internal/aof"
	"github.com/mshaverdo/keelhaul/internal/store"
)

// emitReconstruction walks every live key in s and writes the minimal
// command stream that would recreate it, followed by an EXPIRE for any
// key carrying a future expiration.
func emitReconstruction(s *store.Store, w *aof.Writer) error {
	var firstErr error
	emit := func(cmd string, args ...[]byte) {
		if firstErr != nil {
			return
		}
		firstErr = w.Append(cmd, args)
	}

	s.Snapshot(func(key string, slot *store.Slot) {
		k := []byte(key)

		switch slot.Kind {
		case store.KindString:
			emit("SET", k, slot.Str)

		case store.KindList:
			args := append([][]byte{k}, slot.List...)
			emit("RPUSH", args...)

		case store.KindHash:
			args := [][]byte{k}
			for field, value := range slot.Hash {
				args = append(args, []byte(field), value)
			}
			emit("HSET", args...)

		case store.KindSet:
			args := [][]byte{k}
			for member := range slot.Set {
				args = append(args, []byte(member))
			}
			emit("SADD", args...)

		case store.KindZSet:
			args := [][]byte{k}
			for member, score := range slot.ZSet {
				args = append(args, []byte(formatFloat(score)), []byte(member))
			}
			emit("ZADD", args...)

		case store.KindStream:
			for _, entry := range slot.Stream {
				args := [][]byte{k, []byte(entry.ID.String())}
				for field, value := range entry.Fields {
					args = append(args, []byte(field), []byte(value))
				}
				emit("XADD", args...)
			}

		case store.KindBitmap:
			for offset, b := range slot.Bitmap {
				for bit := 0; bit < 8; bit++ {
					if b&(1<<uint(bit)) != 0 {
						off := int64(offset)*8 + int64(bit)
						emit("SETBIT", k, []byte(strconv.FormatInt(off, 10)), []byte("1"))
					}
				}
			}

		case store.KindGeo:
			args := [][]byte{k}
			for member, point := range slot.Geo {
				args = append(args, []byte(formatFloat(point.Lon)), []byte(formatFloat(point.Lat)), []byte(member))
			}
			emit("GEOADD", args...)

		case store.KindVector:
			args := [][]byte{k}
			for _, v := range slot.Vector {
				args = append(args, []byte(formatFloat(float64(v))))
			}
			emit("VECADD", args...)

		case store.KindTimeSeries:
			for _, sample := range slot.TimeSeries {
				emit("TSADD", k,
					[]byte(formatFloat(sample.Value)),
					[]byte(strconv.FormatInt(sample.Timestamp, 10)))
			}
		}

		if !slot.ExpireAt.IsZero() {
			ttl := int64(slot.ExpireAt.Sub(time.Now()).Seconds())
			if ttl > 0 {
				emit("EXPIRE", k, []byte(strconv.FormatInt(ttl, 10)))
			}
		}
	})

	return firstErr
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func renameFile(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", oldPath, newPath, err)
	}
	return nil
}
