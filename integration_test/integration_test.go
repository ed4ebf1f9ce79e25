//go:build integration
// +build integration

package integration_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mshaverdo/keelhaul/internal/metrics"
	"github.com/mshaverdo/keelhaul/internal/server"
	"github.com/mshaverdo/keelhaul/internal/store"
)

// rawClient is a minimal line-protocol client. The command set here
// (VECADD/TSADD/GEOADD/...) has no off-the-shelf Redis client to exercise
// it meaningfully, so a small in-test client stands in.
type rawClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *rawClient {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dialing %s: %s", addr, err)
	}
	return &rawClient{conn: conn, r: bufio.NewReader(conn)}
}

// do sends a space-separated command line (the text convenience form of
// the wire protocol) and returns the single reply line.
func (c *rawClient) do(t *testing.T, line string) string {
	t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		t.Fatalf("writing %q: %s", line, err)
	}
	reply, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply to %q: %s", line, err)
	}
	return strings.TrimRight(reply, "\r\n")
}

func startServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	st := store.New(0)
	d := &server.Dispatcher{Store: st, Metrics: metrics.New()}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving a port: %s", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	resp := server.New("127.0.0.1", port, d)
	go resp.ListenAndServe()

	return fmt.Sprintf("127.0.0.1:%d", port), func() { resp.Shutdown() }
}

func TestStringRoundTrip(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()
	c := dial(t, addr)

	if got := c.do(t, "SET foo bar"); got != "+OK" {
		t.Fatalf("SET: got %q", got)
	}
	if got := c.do(t, "APPEND foo baz"); got != ":6" {
		t.Fatalf("APPEND: got %q", got)
	}
}

func TestListOrdering(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()
	c := dial(t, addr)

	c.do(t, "LPUSH L a")
	c.do(t, "LPUSH L b")
	c.do(t, "LPUSH L c")
	if got := c.do(t, "LLEN L"); got != ":3" {
		t.Fatalf("LLEN: got %q", got)
	}
}

func TestExpiration(t *testing.T) {
	addr, stop := startServer(t)
	defer stop()
	c := dial(t, addr)

	c.do(t, "SET k v")
	c.do(t, "EXPIRE k 1")
	time.Sleep(1100 * time.Millisecond)
	if got := c.do(t, "TTL k"); got != ":-2" {
		t.Fatalf("TTL after expiry: got %q", got)
	}
}
