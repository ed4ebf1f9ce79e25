package server

import "github.com/mshaverdo/keelhaul/internal/store"

func init() {
	register(command{name: "GEOADD", minArgs: 4, maxArgs: -1, mutator: true, fn: cmdGeoAdd})
	register(command{name: "GEODIST", minArgs: 3, maxArgs: 4, fn: cmdGeoDist})
	register(command{name: "GEORADIUS", minArgs: 4, maxArgs: 5, fn: cmdGeoRadius})
}

func cmdGeoAdd(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	rest := args[1:]
	if len(rest)%3 != 0 {
		return nil, ErrSyntax
	}
	points := make(map[string]store.GeoPoint, len(rest)/3)
	for i := 0; i < len(rest); i += 3 {
		lon, err1 := parseFloatArg(rest[i])
		lat, err2 := parseFloatArg(rest[i+1])
		if err1 != nil || err2 != nil {
			return nil, store.ErrNotFloat
		}
		points[bstr(rest[i+2])] = store.GeoPoint{Lon: lon, Lat: lat}
	}
	n, err := d.Store.GeoAdd(bstr(args[0]), points)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func cmdGeoDist(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	unit := "m"
	if len(args) == 4 {
		unit = bstr(args[3])
	}
	dist, ok, err := d.Store.GeoDist(bstr(args[0]), bstr(args[1]), bstr(args[2]), unit)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Nil, nil
	}
	return BulkString(formatScore(dist)), nil
}

func cmdGeoRadius(d *Dispatcher, sess *Session, args [][]byte) (Reply, error) {
	lon, err1 := parseFloatArg(args[1])
	lat, err2 := parseFloatArg(args[2])
	radius, err3 := parseFloatArg(args[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, store.ErrNotFloat
	}
	unit := "m"
	if len(args) == 5 {
		unit = bstr(args[4])
	}
	members, err := d.Store.GeoRadius(bstr(args[0]), lon, lat, radius, unit)
	if err != nil {
		return nil, err
	}
	return StringArray(members), nil
}
