// Package server is the command dispatch layer: a static verb registry
// maps a parsed (verb, args) tuple to a type-operation call on
// internal/store, renders the result into the RESP wire encoding, and on
// a successful mutator invokes the post-commit hooks (AOF append, replica
// fan-out). Wire framing itself is github.com/tidwall/redcon.
package server

import "github.com/tidwall/redcon"

// Reply is a rendered command result, one of the five RESP wire shapes:
// simple status, error, integer, bulk string (nil-able), or array (of
// Reply, so HGETALL-style maps flatten to an interleaved field/value
// array exactly as RESP2 Redis does).
type Reply interface {
	WriteTo(conn redcon.Conn)
}

// Status renders as a RESP simple string, "+<text>\r\n".
type Status string

func (r Status) WriteTo(conn redcon.Conn) { conn.WriteString(string(r)) }

// OK is the conventional success status for commands with nothing else to
// return.
var OK Reply = Status("OK")

// Err renders as a RESP typed error, "-<Tag> <Msg>\r\n".
type Err struct {
	Tag string
	Msg string
}

func (r Err) WriteTo(conn redcon.Conn) { conn.WriteError(r.Tag + " " + r.Msg) }

// Int renders as a RESP integer, ":<n>\r\n".
type Int int64

func (r Int) WriteTo(conn redcon.Conn) { conn.WriteInt(int(r)) }

// Bool renders the Redis convention of 1/0 integers for boolean results.
func Bool(b bool) Reply {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Bulk renders as a RESP bulk string, nil rendering as "$-1\r\n".
type Bulk struct {
	Data []byte
	Null bool
}

func (r Bulk) WriteTo(conn redcon.Conn) {
	if r.Null {
		conn.WriteNull()
		return
	}
	conn.WriteBulk(r.Data)
}

// BulkString is a convenience constructor for a live bulk string.
func BulkString(s string) Reply { return Bulk{Data: []byte(s)} }

// BulkBytes is a convenience constructor for a live bulk string from bytes.
func BulkBytes(b []byte) Reply { return Bulk{Data: b} }

// Nil is the nil bulk reply, used for "key missing" on read commands.
var Nil Reply = Bulk{Null: true}

// Array renders as a RESP array of the given elements, in order.
type Array []Reply

func (r Array) WriteTo(conn redcon.Conn) {
	conn.WriteArray(len(r))
	for _, elem := range r {
		elem.WriteTo(conn)
	}
}

// BulkArray is a convenience constructor for an array of bulk strings.
func BulkArray(items [][]byte) Reply {
	arr := make(Array, len(items))
	for i, item := range items {
		arr[i] = BulkBytes(item)
	}
	return arr
}

// StringArray is a convenience constructor for an array of bulk strings
// from Go strings.
func StringArray(items []string) Reply {
	arr := make(Array, len(items))
	for i, item := range items {
		arr[i] = BulkString(item)
	}
	return arr
}
