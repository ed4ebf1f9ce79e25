// Package metrics is the opaque counters collector the rest of the server
// emits events into: commands processed, keyspace hits and misses, keys
// expired, and connected clients, rendered as Redis-style INFO sections.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector accumulates process-wide counters. All fields are accessed only
// through atomic ops or the mutex guarding commandCalls, so a *Collector is safe to
// share across every client-serving goroutine.
type Collector struct {
	startedAt int64 // unix nanos

	commandsProcessed int64
	keysExpired       int64
	keyspaceHits      int64
	keyspaceMisses    int64
	connectionsTotal  int64
	connectionsActive int64

	mu           sync.Mutex
	commandCalls map[string]int64
}

// New constructs a Collector with its uptime clock started.
func New() *Collector {
	return &Collector{
		startedAt:    time.Now().UnixNano(),
		commandCalls: make(map[string]int64),
	}
}

// RecordCommand accounts one processed invocation of verb toward
// commands_processed and the per-command cmdstat_<verb> breakdown.
func (c *Collector) RecordCommand(verb string) {
	atomic.AddInt64(&c.commandsProcessed, 1)
	c.mu.Lock()
	c.commandCalls[verb]++
	c.mu.Unlock()
}

// RecordKeyspaceHit/RecordKeyspaceMiss track whether a read found a live key.
func (c *Collector) RecordKeyspaceHit()  { atomic.AddInt64(&c.keyspaceHits, 1) }
func (c *Collector) RecordKeyspaceMiss() { atomic.AddInt64(&c.keyspaceMisses, 1) }

// RecordExpired adds n to the count of keys removed by expiration. The
// server calls it from the active sweeper's per-pass callback; keys removed
// by the lazy on-access check are not counted.
func (c *Collector) RecordExpired(n int) {
	if n > 0 {
		atomic.AddInt64(&c.keysExpired, int64(n))
	}
}

// ClientConnected/ClientDisconnected track the live connection count.
func (c *Collector) ClientConnected() {
	atomic.AddInt64(&c.connectionsTotal, 1)
	atomic.AddInt64(&c.connectionsActive, 1)
}

func (c *Collector) ClientDisconnected() {
	atomic.AddInt64(&c.connectionsActive, -1)
}

// Uptime returns how long this Collector (and, in practice, the server
// process) has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(time.Unix(0, c.startedAt))
}

// Info renders the counters as Redis-style INFO sections: one "name:value"
// line per field, blank-line separated sections, in a deterministic order
// so tests can assert on it.
func (c *Collector) Info() string {
	uptime := c.Uptime()

	var b strings.Builder

	fmt.Fprintf(&b, "# Server\r\n")
	fmt.Fprintf(&b, "redis_version:keelhaul-0.1\r\n")
	fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", int64(uptime.Seconds()))
	fmt.Fprintf(&b, "\r\n")

	fmt.Fprintf(&b, "# Clients\r\n")
	fmt.Fprintf(&b, "connected_clients:%d\r\n", atomic.LoadInt64(&c.connectionsActive))
	fmt.Fprintf(&b, "total_connections_received:%d\r\n", atomic.LoadInt64(&c.connectionsTotal))
	fmt.Fprintf(&b, "\r\n")

	fmt.Fprintf(&b, "# Stats\r\n")
	fmt.Fprintf(&b, "total_commands_processed:%d\r\n", atomic.LoadInt64(&c.commandsProcessed))
	fmt.Fprintf(&b, "expired_keys:%d\r\n", atomic.LoadInt64(&c.keysExpired))
	fmt.Fprintf(&b, "keyspace_hits:%d\r\n", atomic.LoadInt64(&c.keyspaceHits))
	fmt.Fprintf(&b, "keyspace_misses:%d\r\n", atomic.LoadInt64(&c.keyspaceMisses))
	fmt.Fprintf(&b, "\r\n")

	fmt.Fprintf(&b, "# Commandstats\r\n")
	c.mu.Lock()
	verbs := make([]string, 0, len(c.commandCalls))
	for verb := range c.commandCalls {
		verbs = append(verbs, verb)
	}
	sort.Strings(verbs)
	for _, verb := range verbs {
		fmt.Fprintf(&b, "cmdstat_%s:calls=%d\r\n", strings.ToLower(verb), c.commandCalls[verb])
	}
	c.mu.Unlock()

	return b.String()
}
