package server

func init() {
	register(command{name: "SETBIT", minArgs: 3, maxArgs: 3, mutator: true, fn: cmdSetBit})
	register(command{name: "GETBIT", minArgs: 2, maxArgs: 2, fn: cmdGetBit})
	// BITCOUNT works against both string and bitmap keys (store.BitCount
	// dispatches on the slot's Kind internally), so it is registered once
	// here and shared across both command families.
	register(command{name: "BITCOUNT", minArgs: 1, maxArgs: 3, fn: cmdBitCount})
}

func cmdSetBit(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	offset, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	value, err := parseIntArg(args[2])
	if err != nil || (value != 0 && value != 1) {
		return nil, ErrSyntax
	}
	previous, err := d.Store.SetBit(bstr(args[0]), offset, value)
	if err != nil {
		return nil, err
	}
	return Int(previous), nil
}

func cmdGetBit(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	offset, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}
	value, err := d.Store.GetBit(bstr(args[0]), offset)
	if err != nil {
		return nil, err
	}
	return Int(value), nil
}

func cmdBitCount(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	var rng *[2]int
	if len(args) == 3 {
		start, err1 := parseIntArg(args[1])
		end, err2 := parseIntArg(args[2])
		if err1 != nil || err2 != nil {
			return nil, ErrSyntax
		}
		rng = &[2]int{start, end}
	} else if len(args) == 2 {
		return nil, ErrSyntax
	}
	count, err := d.Store.BitCount(bstr(args[0]), rng)
	if err != nil {
		return nil, err
	}
	return Int(count), nil
}
