package server

func init() {
	register(command{name: "DEL", minArgs: 1, maxArgs: -1, mutator: true, fn: cmdDel})
	register(command{name: "EXISTS", minArgs: 1, maxArgs: 1, fn: cmdExists})
	register(command{name: "TYPE", minArgs: 1, maxArgs: 1, fn: cmdType})
	register(command{name: "EXPIRE", minArgs: 2, maxArgs: 2, mutator: true, fn: cmdExpire})
	register(command{name: "TTL", minArgs: 1, maxArgs: 1, fn: cmdTTL})
	register(command{name: "PERSIST", minArgs: 1, maxArgs: 1, mutator: true, fn: cmdPersist})
}

func cmdDel(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n := d.Store.Del(bstrs(args))
	return Int(n), nil
}

func cmdExists(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return Bool(d.Store.Exists(bstr(args[0]))), nil
}

func cmdType(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return BulkString(d.Store.Type(bstr(args[0]))), nil
}

func cmdExpire(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	seconds, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	return Int(d.Store.Expire(bstr(args[0]), seconds)), nil
}

func cmdTTL(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return Int(d.Store.TTL(bstr(args[0]))), nil
}

func cmdPersist(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	return Int(d.Store.Persist(bstr(args[0]))), nil
}
