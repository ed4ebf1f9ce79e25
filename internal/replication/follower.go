package replication

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mshaverdo/keelhaul/internal/logutil"
	"github.com/mshaverdo/keelhaul/internal/rdb"
	"github.com/mshaverdo/keelhaul/internal/store"
)

// reconnectBackoff is the fixed delay before a replica that lost its
// primary connection dials again.
const reconnectBackoff = 5 * time.Second

// Applier replays one mutator invocation against the local keyspace,
// matching the dispatcher's Apply method so a replica can drive the same
// command handlers a client connection would.
type Applier interface {
	Apply(cmd string, args [][]byte) error
}

// Follower tracks a replica's upstream primary and keeps the local Store in
// sync with it for as long as Run is active.
type Follower struct {
	primaryAddr   string
	listeningPort int
	store         *store.Store
	applier       Applier

	replid string
	offset int64
}

// NewFollower constructs a Follower that will connect to primaryAddr
// ("host:port"), advertising listeningPort as this instance's own client
// port in REPLCONF, and applying the replicated stream through applier.
func NewFollower(primaryAddr string, listeningPort int, s *store.Store, applier Applier) *Follower {
	return &Follower{
		primaryAddr:   primaryAddr,
		listeningPort: listeningPort,
		store:         s,
		applier:       applier,
	}
}

// Run connects to the primary, performs the full-resync handshake, and
// applies the replicated command stream until ctx is cancelled or the
// connection fails, reconnecting with a fixed backoff on every failure.
func (f *Follower) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := f.syncOnce(ctx); err != nil {
			logutil.Warningf("replication: connection to primary %s lost: %s", f.primaryAddr, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (f *Follower) syncOnce(ctx context.Context) error {
	conn, err := net.Dial("tcp", f.primaryAddr)
	if err != nil {
		return fmt.Errorf("dialing primary: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	r := bufio.NewReader(conn)

	if _, err := fmt.Fprintf(conn, "REPLCONF listening-port %d\r\n", f.listeningPort); err != nil {
		return err
	}
	if _, err := fmt.Fprint(conn, "PSYNC ? -1\r\n"); err != nil {
		return err
	}

	line, _, err := readLine(r)
	if err != nil {
		return fmt.Errorf("reading FULLRESYNC reply: %w", err)
	}
	replid, offset, err := parseFullResync(line)
	if err != nil {
		return err
	}
	f.replid, f.offset = replid, offset

	payload, err := readRDBPayload(r)
	if err != nil {
		return fmt.Errorf("reading snapshot transfer: %w", err)
	}
	slots, err := rdb.DecodeBytes(payload)
	if err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	f.store.LoadSnapshot(slots)
	logutil.Noticef("replication: full resync from %s complete, %d keys, offset %d", f.primaryAddr, len(slots), offset)

	for {
		verb, args, n, err := readCommand(r)
		if err != nil {
			return fmt.Errorf("reading replicated command: %w", err)
		}
		f.offset += int64(n)
		if err := f.applier.Apply(verb, args); err != nil {
			logutil.Errorf("replication: applying %s failed: %s", verb, err)
		}
	}
}

func parseFullResync(line []byte) (replid string, offset int64, err error) {
	fields := strings.Fields(string(line))
	if len(fields) != 3 || fields[0] != "+FULLRESYNC" {
		return "", 0, fmt.Errorf("unexpected reply %q", line)
	}
	offset, err = strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, err
	}
	return fields[1], offset, nil
}

func readRDBPayload(r *bufio.Reader) ([]byte, error) {
	line, _, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if len(line) == 0 || line[0] != '$' {
		return nil, fmt.Errorf("expected bulk header, got %q", line)
	}
	length, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return nil, err
	}
	data := make([]byte, length)
	if _, err := readFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
