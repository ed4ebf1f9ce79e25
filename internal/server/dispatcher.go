package server

import (
	"strings"

	"github.com/mshaverdo/keelhaul/internal/metrics"
	"github.com/mshaverdo/keelhaul/internal/store"
)

// handlerFunc implements one verb's Type Operation call plus result
// rendering. It returns the error taxonomy from store/errors.go and
// errors.go unchanged; Dispatcher.Handle renders it to a wire Err.
type handlerFunc func(d *Dispatcher, sess *Session, args [][]byte) (Reply, error)

// command is one static registry entry: arity bounds, mutator
// classification, auth exemption, plus the handler itself.
type command struct {
	name       string
	minArgs    int
	maxArgs    int // -1 means unbounded
	mutator    bool
	replicaOK  bool // may run on a replica even though it mutates (none currently do)
	authOptOut bool // PING/AUTH/INFO don't require prior auth
	fn         handlerFunc
}

var registry = map[string]*command{}

func register(c command) {
	registry[c.name] = &c
}

func lookup(name string) (*command, bool) {
	c, ok := registry[strings.ToUpper(name)]
	return c, ok
}

// Session is per-connection state: auth status and the authenticated
// principal, threaded through Authorize. A session executes one command
// at a time, so the propagation-rewrite slot below needs no locking.
type Session struct {
	Authenticated bool
	User          string

	rewritten [][]byte
}

// RewriteForPropagation substitutes the argument vector that will be
// appended to the AOF and relayed to replicas for the command currently
// executing on this session. Handlers whose effect depends on the wall
// clock (XADD with the "*" auto-id, TSADD without an explicit timestamp)
// call this with the materialized values, so replay reproduces the
// primary's result instead of deriving a fresh one.
func (sess *Session) RewriteForPropagation(args ...[]byte) {
	sess.rewritten = args
}

// AuthorizeFunc is the external authorize(user, command, key) predicate.
// The dispatcher only consults it; policy lives with the caller.
type AuthorizeFunc func(user, cmd, key string) bool

// ReplicateFunc fans a committed mutator out to subordinate peers. It is
// nil on a replica and wherever no replication sink is wired.
type ReplicateFunc func(cmd string, args [][]byte)

// Mutation is the persistence sink: LogMutation receives each mutator after
// it commits, for appending to the AOF. Replication goes through
// ReplicateFunc instead.
type Mutation interface {
	LogMutation(cmd string, args [][]byte)
}

// Dispatcher routes parsed commands to their handlers. It owns no state
// of its own beyond wiring: the keyspace lives in Store, persistence and
// replication are sinks it calls into after a successful commit.
type Dispatcher struct {
	Store       *store.Store
	Metrics     *metrics.Collector
	Persist     Mutation // nil disables AOF logging
	Replicate   ReplicateFunc
	Authorize   AuthorizeFunc
	RequirePass string
	MaxMemory   int64       // bytes of heap above which mutators are rejected; 0 disables
	IsReplica   func() bool // nil means "always primary"

	memCheck memoryCheck
}

// replicaSafeVerbs lists mutators a replica would accept from clients; it
// is kept explicit and empty, so the read-only gate refuses every mutator.
var replicaSafeVerbs = map[string]bool{}

// Handle runs the full dispatch pipeline for one parsed client command
// and returns the reply to send back: verb lookup, auth gate, replica
// read-only gate, arity check, authorization, execution, post-commit
// hooks. Authorization failures, arity errors and command failures are
// all returned as replies, never as a Go error: a bad command never
// affects the connection.
func (d *Dispatcher) Handle(sess *Session, verb string, args [][]byte) Reply {
	upper := strings.ToUpper(verb)

	cmd, ok := lookup(upper)
	if !ok {
		return toErr(upper, ErrUnknownCommand)
	}

	if d.RequirePass != "" && !sess.Authenticated && !cmd.authOptOut {
		return toErr(upper, ErrNoAuth)
	}

	if cmd.mutator && d.IsReplica != nil && d.IsReplica() && !replicaSafeVerbs[upper] {
		return toErr(upper, ErrReadOnly)
	}

	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return toErr(upper, ErrSyntax)
	}

	if d.Authorize != nil {
		key := ""
		if len(args) > 0 {
			key = bstr(args[0])
		}
		if !d.Authorize(sess.User, upper, key) {
			return toErr(upper, ErrPermission)
		}
	}

	if cmd.mutator && d.overMemoryLimit() {
		return toErr(upper, ErrOutOfMemory)
	}

	sess.rewritten = nil
	reply, err := cmd.fn(d, sess, args)
	if d.Metrics != nil {
		d.Metrics.RecordCommand(upper)
	}
	if err != nil {
		return toErr(upper, err)
	}

	if cmd.mutator {
		if sess.rewritten != nil {
			args = sess.rewritten
		}
		d.afterCommit(upper, args)
	}

	return reply
}

// afterCommit runs the post-commit hooks, only ever called once the type
// operation has already committed successfully: a failed command is never
// logged or replicated.
func (d *Dispatcher) afterCommit(verb string, args [][]byte) {
	if d.Persist != nil {
		d.Persist.LogMutation(verb, args)
	}
	if d.Replicate != nil {
		d.Replicate(verb, args)
	}
}

// Apply replays one previously-logged or primary-propagated mutator
// invocation directly against the Store, bypassing authorization, arity
// re-checking and the post-commit hooks. Used by AOF replay on startup and
// by a replica applying its primary's command stream, so both paths share
// the exact Type Operation code the live dispatch path uses.
func (d *Dispatcher) Apply(verb string, args [][]byte) error {
	cmd, ok := lookup(strings.ToUpper(verb))
	if !ok {
		return ErrUnknownCommand
	}
	_, err := cmd.fn(d, &Session{Authenticated: true}, args)
	return err
}
