package server

import (
	"strings"
	"testing"

	"github.com/mshaverdo/keelhaul/internal/store"
)

// logSink records every mutation the dispatcher hands to its persistence
// hook, standing in for the AOF writer.
type logSink struct {
	cmds []string
	args [][][]byte
}

func (l *logSink) LogMutation(cmd string, args [][]byte) {
	l.cmds = append(l.cmds, cmd)
	l.args = append(l.args, args)
}

func newTestDispatcher() (*Dispatcher, *logSink) {
	sink := &logSink{}
	d := &Dispatcher{
		Store:   store.New(0),
		Persist: sink,
	}
	return d, sink
}

func TestHandleUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher()

	reply := d.Handle(&Session{}, "FROBNICATE", nil)
	errReply, ok := reply.(Err)
	if !ok || errReply.Tag != "ERR" || !strings.Contains(errReply.Msg, "unknown command") {
		t.Fatalf("unknown verb: got %#v", reply)
	}
}

func TestHandleArity(t *testing.T) {
	d, sink := newTestDispatcher()

	reply := d.Handle(&Session{}, "GET", nil)
	if _, ok := reply.(Err); !ok {
		t.Fatalf("GET with no args: got %#v", reply)
	}
	if len(sink.cmds) != 0 {
		t.Fatalf("a rejected command must not be logged")
	}
}

func TestHandleWrongTypeTag(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Handle(&Session{}, "LPUSH", [][]byte{[]byte("L"), []byte("a")})

	reply := d.Handle(&Session{}, "GET", [][]byte{[]byte("L")})
	errReply, ok := reply.(Err)
	if !ok || errReply.Tag != "WRONGTYPE" {
		t.Fatalf("GET on a list: got %#v", reply)
	}
}

func TestHandleLogsOnlyCommittedMutators(t *testing.T) {
	d, sink := newTestDispatcher()

	d.Handle(&Session{}, "SET", [][]byte{[]byte("k"), []byte("v")})
	d.Handle(&Session{}, "GET", [][]byte{[]byte("k")})
	d.Handle(&Session{}, "INCR", [][]byte{[]byte("k")}) // fails: not an integer

	if len(sink.cmds) != 1 || sink.cmds[0] != "SET" {
		t.Fatalf("logged commands: %v, want just SET", sink.cmds)
	}
}

func TestXAddAutoIDPropagatesMaterialized(t *testing.T) {
	d, sink := newTestDispatcher()

	reply := d.Handle(&Session{}, "XADD", [][]byte{[]byte("s"), []byte("*"), []byte("f"), []byte("v")})
	bulk, ok := reply.(Bulk)
	if !ok {
		t.Fatalf("XADD reply: %#v", reply)
	}

	if len(sink.args) != 1 {
		t.Fatalf("XADD should log exactly one mutation, got %d", len(sink.args))
	}
	logged := string(sink.args[0][1])
	if logged == "*" {
		t.Fatalf("propagated XADD must carry the materialized id, not *")
	}
	if logged != string(bulk.Data) {
		t.Fatalf("propagated id %q differs from the reply id %q", logged, bulk.Data)
	}
}

func TestTSAddDefaultTimestampPropagatesMaterialized(t *testing.T) {
	d, sink := newTestDispatcher()

	reply := d.Handle(&Session{}, "TSADD", [][]byte{[]byte("t"), []byte("1.5")})
	if reply != OK {
		t.Fatalf("TSADD reply: %#v", reply)
	}

	if len(sink.args) != 1 || len(sink.args[0]) != 3 {
		t.Fatalf("propagated TSADD must carry an explicit timestamp, got %v", sink.args)
	}
}

func TestAuthGate(t *testing.T) {
	d, _ := newTestDispatcher()
	d.RequirePass = "hunter2"
	sess := &Session{}

	reply := d.Handle(sess, "GET", [][]byte{[]byte("k")})
	if errReply, ok := reply.(Err); !ok || errReply.Tag != "NOAUTH" {
		t.Fatalf("unauthenticated GET: got %#v", reply)
	}

	if reply := d.Handle(sess, "AUTH", [][]byte{[]byte("wrong")}); reply == OK {
		t.Fatalf("AUTH with a bad password should fail")
	}
	if reply := d.Handle(sess, "AUTH", [][]byte{[]byte("hunter2")}); reply != OK {
		t.Fatalf("AUTH: got %#v", reply)
	}
	reply = d.Handle(sess, "GET", [][]byte{[]byte("k")})
	if b, ok := reply.(Bulk); !ok || !b.Null {
		t.Fatalf("authenticated GET of a missing key: got %#v", reply)
	}
}

func TestReplicaRejectsMutators(t *testing.T) {
	d, sink := newTestDispatcher()
	d.IsReplica = func() bool { return true }

	reply := d.Handle(&Session{}, "SET", [][]byte{[]byte("k"), []byte("v")})
	if errReply, ok := reply.(Err); !ok || errReply.Tag != "READONLY" {
		t.Fatalf("SET on a replica: got %#v", reply)
	}
	if len(sink.cmds) != 0 {
		t.Fatalf("a rejected mutator must not be logged")
	}

	reply = d.Handle(&Session{}, "GET", [][]byte{[]byte("k")})
	if b, ok := reply.(Bulk); !ok || !b.Null {
		t.Fatalf("reads must still work on a replica: got %#v", reply)
	}
}

func TestApplySharesHandlerPath(t *testing.T) {
	d, sink := newTestDispatcher()

	if err := d.Apply("SET", [][]byte{[]byte("k"), []byte("v")}); err != nil {
		t.Fatalf("Apply SET: %s", err)
	}
	v, err := d.Store.Get("k")
	if err != nil || string(v) != "v" {
		t.Fatalf("Get after Apply: v=%s err=%v", v, err)
	}
	if len(sink.cmds) != 0 {
		t.Fatalf("Apply must not re-log the command")
	}
}

func TestVecSearchArgShapes(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Handle(&Session{}, "VECADD", [][]byte{[]byte("v1"), []byte("1"), []byte("0")})
	d.Handle(&Session{}, "VECADD", [][]byte{[]byte("v2"), []byte("0"), []byte("1")})

	reply := d.Handle(&Session{}, "VECSEARCH", [][]byte{[]byte("1"), []byte("0"), []byte("1")})
	arr, ok := reply.(Array)
	if !ok || len(arr) != 1 {
		t.Fatalf("VECSEARCH: got %#v", reply)
	}

	reply = d.Handle(&Session{}, "VECSEARCH", [][]byte{[]byte("1"), []byte("0"), []byte("2"), []byte("euclidean")})
	arr, ok = reply.(Array)
	if !ok || len(arr) != 2 {
		t.Fatalf("VECSEARCH with a metric: got %#v", reply)
	}
}
