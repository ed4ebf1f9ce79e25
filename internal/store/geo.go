package store

import "math"

// earthRadiusMeters is the mean Earth radius used for haversine distance.
const earthRadiusMeters = 6371000.0

// geoUnitFactors converts meters into each supported output unit.
var geoUnitFactors = map[string]float64{
	"m":  1,
	"km": 1000,
	"mi": 1609.344,
	"ft": 0.3048,
}

// GeoAdd sets the coordinates of each member in the geo collection at key,
// creating it if absent, validating longitude/latitude ranges, and returns
// the count of members newly added (updates to existing members don't
// count).
func (s *Store) GeoAdd(key string, points map[string]GeoPoint) (added int, err error) {
	for _, p := range points {
		if p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
			return 0, ErrGeoRange
		}
	}

	err = s.withWrite(key, func(slot *Slot, exists bool) (*Slot, bool, error) {
		if exists && slot.Kind != KindGeo {
			return slot, false, ErrWrongType
		}
		if !exists {
			slot = newSlot(KindGeo)
		}
		for member, point := range points {
			if _, ok := slot.Geo[member]; !ok {
				added++
			}
			slot.Geo[member] = point
		}
		return slot, true, nil
	})
	return added, err
}

func haversineMeters(a, b GeoPoint) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := lat2 - lat1
	dLon := toRad(b.Lon) - toRad(a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// GeoDist returns the haversine distance between two members of the geo
// collection at key, converted to unit (m/km/mi/ft; default "m"). Returns
// ok == false if either member is missing.
func (s *Store) GeoDist(key, member1, member2, unit string) (distance float64, ok bool, err error) {
	if unit == "" {
		unit = "m"
	}
	factor, known := geoUnitFactors[unit]
	if !known {
		return 0, false, ErrSyntax
	}

	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindGeo {
			return ErrWrongType
		}
		p1, ok1 := slot.Geo[member1]
		p2, ok2 := slot.Geo[member2]
		if !ok1 || !ok2 {
			return nil
		}
		distance = haversineMeters(p1, p2) / factor
		ok = true
		return nil
	})
	return distance, ok, err
}

// GeoRadius returns every member of the geo collection at key whose
// haversine distance from (lon, lat) is at most radius (in unit).
func (s *Store) GeoRadius(key string, lon, lat, radius float64, unit string) (members []string, err error) {
	if unit == "" {
		unit = "m"
	}
	factor, known := geoUnitFactors[unit]
	if !known {
		return nil, ErrSyntax
	}

	center := GeoPoint{Lon: lon, Lat: lat}
	err = s.withRead(key, func(slot *Slot) error {
		if slot == nil {
			return nil
		}
		if slot.Kind != KindGeo {
			return ErrWrongType
		}
		for member, point := range slot.Geo {
			if haversineMeters(center, point)/factor <= radius {
				members = append(members, member)
			}
		}
		return nil
	})
	return members, err
}
