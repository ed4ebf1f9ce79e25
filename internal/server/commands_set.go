package server

func init() {
	register(command{name: "SADD", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdSAdd})
	register(command{name: "SREM", minArgs: 2, maxArgs: -1, mutator: true, fn: cmdSRem})
	register(command{name: "SMEMBERS", minArgs: 1, maxArgs: 1, fn: cmdSMembers})
	register(command{name: "SISMEMBER", minArgs: 2, maxArgs: 2, fn: cmdSIsMember})
	register(command{name: "SCARD", minArgs: 1, maxArgs: 1, fn: cmdSCard})
	register(command{name: "SPOP", minArgs: 1, maxArgs: 2, mutator: true, fn: cmdSPop})
	register(command{name: "SRANDMEMBER", minArgs: 1, maxArgs: 2, fn: cmdSRandMember})
	register(command{name: "SINTER", minArgs: 1, maxArgs: -1, fn: cmdSInter})
	register(command{name: "SUNION", minArgs: 1, maxArgs: -1, fn: cmdSUnion})
	register(command{name: "SDIFF", minArgs: 1, maxArgs: -1, fn: cmdSDiff})
}

func cmdSAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.SAdd(bstr(args[0]), bstrs(args[1:]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdSRem(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.SRem(bstr(args[0]), bstrs(args[1:]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdSMembers(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	members, err := d.Store.SMembers(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return StringArray(members), nil
}

func cmdSIsMember(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	ok, err := d.Store.SIsMember(bstr(args[0]), bstr(args[1]))
	if err != nil {
		return nil, err
	}
	return Bool(ok), nil
}

func cmdSCard(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	n, err := d.Store.SCard(bstr(args[0]))
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdSPop(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	count := 1
	if len(args) == 2 {
		var err error
		count, err = parseIntArg(args[1])
		if err != nil {
			return nil, ErrSyntax
		}
	}
	members, err := d.Store.SPop(bstr(args[0]), count)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if len(members) == 0 {
			return Nil, nil
		}
		return BulkString(members[0]), nil
	}
	return StringArray(members), nil
}

func cmdSRandMember(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	count := 1
	if len(args) == 2 {
		var err error
		count, err = parseIntArg(args[1])
		if err != nil {
			return nil, ErrSyntax
		}
	}
	members, err := d.Store.SRandMember(bstr(args[0]), count)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if len(members) == 0 {
			return Nil, nil
		}
		return BulkString(members[0]), nil
	}
	return StringArray(members), nil
}

func cmdSInter(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	members, err := d.Store.SInter(bstrs(args))
	if err != nil {
		return nil, err
	}
	return StringArray(members), nil
}

func cmdSUnion(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	members, err := d.Store.SUnion(bstrs(args))
	if err != nil {
		return nil, err
	}
	return StringArray(members), nil
}

func cmdSDiff(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	members, err := d.Store.SDiff(bstrs(args))
	if err != nil {
		return nil, err
	}
	return StringArray(members), nil
}
