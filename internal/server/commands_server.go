package server

func init() {
	register(command{name: "PING", minArgs: 0, maxArgs: 1, authOptOut: true, fn: cmdPing})
	register(command{name: "AUTH", minArgs: 1, maxArgs: 1, authOptOut: true, fn: cmdAuth})
	register(command{name: "INFO", minArgs: 0, maxArgs: 1, authOptOut: true, fn: cmdInfo})
}

func cmdPing(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if len(args) == 1 {
		return BulkBytes(args[0]), nil
	}
	return Status("PONG"), nil
}

func cmdAuth(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if d.RequirePass == "" {
		return nil, ErrNoAuth
	}
	if bstr(args[0]) != d.RequirePass {
		return nil, ErrPermission
	}
	sess.Authenticated = true
	sess.User = "default"
	return OK, nil
}

func cmdInfo(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	if d.Metrics == nil {
		return BulkString(""), nil
	}
	return BulkString(d.Metrics.Info()), nil
}
