package server

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/mshaverdo/keelhaul/internal/logutil"
	"github.com/tidwall/redcon"
)

// RespServer is the RESP wire adapter: redcon owns connection accept and
// frame parsing, and every parsed command is routed straight into
// Dispatcher.Handle, whose Reply renders itself onto the connection.
type RespServer struct {
	host       string
	port       int
	dispatcher *Dispatcher
	server     *redcon.Server
	stopChan   chan struct{}

	// MaxClients caps concurrently connected clients; connections past the
	// cap are refused at accept time. 0 means unlimited. Set before
	// ListenAndServe.
	MaxClients int

	clients int64
}

// New returns a RespServer listening on host:port and routing every command
// through dispatcher.
func New(host string, port int, dispatcher *Dispatcher) *RespServer {
	return &RespServer{
		host:       host,
		port:       port,
		dispatcher: dispatcher,
		stopChan:   make(chan struct{}),
	}
}

// ListenAndServe starts accepting connections; it blocks until Shutdown.
func (s *RespServer) ListenAndServe() error {
	s.server = redcon.NewServerNetwork(
		"tcp",
		fmt.Sprintf("%s:%d", s.host, s.port),
		s.handler,
		s.onAccept,
		s.onClosed,
	)

	err := s.server.ListenAndServe()
	if err == nil {
		<-s.stopChan
		return nil
	}
	return err
}

// Stop stops accepting new connections without waiting for Shutdown.
func (s *RespServer) Stop() error {
	return s.server.Close()
}

// Shutdown gracefully shuts the server down.
func (s *RespServer) Shutdown() error {
	defer close(s.stopChan)
	return s.Stop()
}

func (s *RespServer) onAccept(conn redcon.Conn) bool {
	if s.MaxClients > 0 && atomic.AddInt64(&s.clients, 1) > int64(s.MaxClients) {
		atomic.AddInt64(&s.clients, -1)
		logutil.Warningf("refusing connection from %s: max clients reached", conn.RemoteAddr())
		return false
	}
	conn.SetContext(&Session{})
	if s.dispatcher.Metrics != nil {
		s.dispatcher.Metrics.ClientConnected()
	}
	return true
}

func (s *RespServer) onClosed(conn redcon.Conn, err error) {
	if s.MaxClients > 0 {
		atomic.AddInt64(&s.clients, -1)
	}
	if s.dispatcher.Metrics != nil {
		s.dispatcher.Metrics.ClientDisconnected()
	}
}

func (s *RespServer) handler(conn redcon.Conn, command redcon.Command) {
	if len(command.Args) == 0 {
		return
	}

	verb := strings.ToUpper(string(command.Args[0]))
	switch verb {
	case "PING":
		if len(command.Args) > 1 {
			conn.WriteBulk(command.Args[1])
		} else {
			conn.WriteString("PONG")
		}
		return
	case "QUIT":
		conn.WriteString("OK")
		conn.Close()
		return
	}

	sess, _ := conn.Context().(*Session)
	if sess == nil {
		sess = &Session{}
	}

	logutil.Debugf("received command: %q", command.Args)

	reply := s.dispatcher.Handle(sess, verb, command.Args[1:])
	reply.WriteTo(conn)
}
