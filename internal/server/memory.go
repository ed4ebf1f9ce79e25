package server

import (
	"runtime"
	"sync/atomic"
	"time"
)

// memCheckInterval bounds how often overMemoryLimit pays for a full
// runtime.ReadMemStats (it stops the world briefly); between refreshes the
// cached reading is served.
const memCheckInterval = 100 * time.Millisecond

type memoryCheck struct {
	lastRefresh int64 // unix nanos
	heapInUse   int64
}

// overMemoryLimit reports whether the process heap currently exceeds the
// configured MaxMemory cap. The reading is refreshed at most every
// memCheckInterval, so a burst of mutators between refreshes may overshoot
// the cap by one interval's worth of allocation.
func (d *Dispatcher) overMemoryLimit() bool {
	if d.MaxMemory <= 0 {
		return false
	}

	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&d.memCheck.lastRefresh)
	if now-last > int64(memCheckInterval) && atomic.CompareAndSwapInt64(&d.memCheck.lastRefresh, last, now) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		atomic.StoreInt64(&d.memCheck.heapInUse, int64(ms.HeapInuse))
	}

	return atomic.LoadInt64(&d.memCheck.heapInUse) > d.MaxMemory
}
