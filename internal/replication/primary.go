// Package replication fans committed mutators out to subordinate peers:
// the primary/replica handshake (REPLCONF/PSYNC/FULLRESYNC), full-resync
// snapshot streaming, ordered command-stream relay, and the replica's
// reconnect-with-backoff loop.
package replication

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/mshaverdo/keelhaul/internal/logutil"
	"github.com/mshaverdo/keelhaul/internal/rdb"
	"github.com/mshaverdo/keelhaul/internal/store"
)

const backlogMaxBytes = 8 << 20

// replicaShardCount spreads the live replica set across independent mutexes
// (each replica bucketed by xxhash of its remote address, the same hash
// family internal/store uses for stripe selection) so propagating to many
// replicas concurrently doesn't serialize on one lock.
const replicaShardCount = 16

type replicaConn struct {
	addr string
	w    *bufio.Writer
	conn net.Conn
}

// Primary fans out committed mutators to every connected replica and serves
// the PSYNC handshake. It is safe to use a nil *Primary: Propagate and
// ReplicaCount become no-ops, the configuration for an instance with no
// attached replicas.
type Primary struct {
	replid  string
	store   *store.Store
	backlog *backlog

	mu     sync.Mutex // guards offset
	offset int64

	shardMu  [replicaShardCount]sync.Mutex
	replicas [replicaShardCount]map[string]*replicaConn
}

// NewPrimary constructs a Primary serving s, generating a fresh 40-hex-digit
// replication id the way a freshly started Redis primary does.
func NewPrimary(s *store.Store) *Primary {
	p := &Primary{
		replid:  generateReplID(),
		store:   s,
		backlog: newBacklog(backlogMaxBytes),
	}
	for i := range p.replicas {
		p.replicas[i] = make(map[string]*replicaConn)
	}
	return p
}

func generateReplID() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for anything security
		// sensitive, but a replid only needs to be unlikely-to-collide;
		// fall back to a fixed placeholder rather than panicking the
		// whole server over a cosmetic id.
		return "0000000000000000000000000000000000000000"
	}
	return hex.EncodeToString(b)
}

func shardIndex(addr string) int {
	return int(xxhash.ChecksumString64(addr) % replicaShardCount)
}

// HandleConn runs the PSYNC handshake on a freshly accepted connection that
// identified itself as a replica, then registers it for ongoing propagation.
// It returns once the handshake completes; the connection is subsequently
// driven only by Propagate (fire-and-forget writes), not read from again.
func (p *Primary) HandleConn(conn net.Conn) error {
	r := bufio.NewReader(conn)

	listeningPort, err := readReplconf(r)
	if err != nil {
		return fmt.Errorf("replication: REPLCONF: %w", err)
	}

	if err := readPsync(r); err != nil {
		return fmt.Errorf("replication: PSYNC: %w", err)
	}

	offset := p.currentOffset()
	if _, err := fmt.Fprintf(conn, "+FULLRESYNC %s %d\r\n", p.replid, offset); err != nil {
		return err
	}

	payload, err := rdb.EncodeBytes(p.store)
	if err != nil {
		return fmt.Errorf("replication: encoding snapshot: %w", err)
	}
	if _, err := fmt.Fprintf(conn, "$%d\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:listening=%d", conn.RemoteAddr().String(), listeningPort)
	rc := &replicaConn{addr: addr, w: bufio.NewWriter(conn), conn: conn}
	shard := shardIndex(addr)
	p.shardMu[shard].Lock()
	p.replicas[shard][addr] = rc
	p.shardMu[shard].Unlock()

	logutil.Noticef("replication: replica %s attached at offset %d", addr, offset)
	return nil
}

// ListenAndServe accepts replica connections on addr and runs the PSYNC
// handshake on each, forever or until the listener is closed. Replication
// uses its own listener rather than multiplexing with the client RESP port,
// since redcon owns that connection's lifecycle internally and the
// handshake here needs to read and write the raw connection directly.
func (p *Primary) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() {
			if err := p.HandleConn(conn); err != nil {
				logutil.Warningf("replication: handshake with %s failed: %s", conn.RemoteAddr(), err)
				conn.Close()
			}
		}()
	}
}

func (p *Primary) currentOffset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Propagate relays one committed mutator to every attached replica and
// appends it to the backlog. Called as the Dispatcher's ReplicateFunc, so
// it only ever sees commands that already committed successfully.
func (p *Primary) Propagate(verb string, args [][]byte) {
	if p == nil {
		return
	}
	frame := encodeCommand(verb, args)

	p.mu.Lock()
	p.offset += int64(len(frame))
	p.mu.Unlock()
	p.backlog.append(frame)

	for shard := range p.replicas {
		p.shardMu[shard].Lock()
		for addr, rc := range p.replicas[shard] {
			if _, err := rc.w.Write(frame); err != nil || rc.w.Flush() != nil {
				logutil.Warningf("replication: dropping replica %s: write failed", addr)
				rc.conn.Close()
				delete(p.replicas[shard], addr)
				continue
			}
		}
		p.shardMu[shard].Unlock()
	}
}

// ReplicaCount returns the number of currently attached replicas, for INFO.
func (p *Primary) ReplicaCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for shard := range p.replicas {
		p.shardMu[shard].Lock()
		n += len(p.replicas[shard])
		p.shardMu[shard].Unlock()
	}
	return n
}

func readReplconf(r *bufio.Reader) (listeningPort int, err error) {
	line, _, err := readLine(r)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(line))
	if len(fields) != 3 || strings.ToUpper(fields[0]) != "REPLCONF" || strings.ToLower(fields[1]) != "listening-port" {
		return 0, fmt.Errorf("unexpected line %q", line)
	}
	port, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, err
	}
	return port, nil
}

func readPsync(r *bufio.Reader) error {
	line, _, err := readLine(r)
	if err != nil {
		return err
	}
	fields := strings.Fields(string(line))
	if len(fields) != 3 || strings.ToUpper(fields[0]) != "PSYNC" {
		return fmt.Errorf("unexpected line %q", line)
	}
	return nil
}
