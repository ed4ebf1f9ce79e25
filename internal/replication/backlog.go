package replication

import "sync"

// backlog retains the most recent bytes of the propagated command stream
// so a reconnecting replica within the window can resume from its last
// offset instead of re-running a full resync. The +CONTINUE negotiation
// itself is not wired up yet; this type keeps the offset bookkeeping it
// will need.
type backlog struct {
	mu       sync.Mutex
	buf      []byte
	maxBytes int
	baseOff  int64 // stream offset of buf[0]
	endOff   int64 // stream offset just past buf[len(buf)-1]
}

func newBacklog(maxBytes int) *backlog {
	return &backlog{maxBytes: maxBytes}
}

// append records data, which was written to replicas at offset
// b.endOff..b.endOff+len(data), trimming from the front once maxBytes is
// exceeded.
func (b *backlog) append(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, data...)
	b.endOff += int64(len(data))
	if over := len(b.buf) - b.maxBytes; over > 0 {
		b.buf = b.buf[over:]
		b.baseOff += int64(over)
	}
}

// since returns the bytes from offset to the current end of the backlog,
// and whether offset still falls within the retained window.
func (b *backlog) since(offset int64) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < b.baseOff || offset > b.endOff {
		return nil, false
	}
	start := offset - b.baseOff
	out := make([]byte, len(b.buf)-int(start))
	copy(out, b.buf[start:])
	return out, true
}

func (b *backlog) offset() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endOff
}
