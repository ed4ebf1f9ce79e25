package store

import (
	"math"
	"testing"
)

func TestGeoAddDistRadius(t *testing.T) {
	s := New(0)

	n, err := s.GeoAdd("g", map[string]GeoPoint{
		"a": {Lon: 13.361389, Lat: 38.115556},
		"b": {Lon: 15.087269, Lat: 37.502669},
	})
	if err != nil || n != 2 {
		t.Fatalf("GeoAdd: n=%d err=%s", n, err)
	}

	dist, ok, err := s.GeoDist("g", "a", "b", "km")
	if err != nil || !ok {
		t.Fatalf("GeoDist: ok=%v err=%s", ok, err)
	}
	if math.Abs(dist-166.27) > 1 {
		t.Fatalf("GeoDist: got %f, want ~166.27km", dist)
	}

	if _, ok, err := s.GeoDist("g", "a", "missing", "km"); err != nil || ok {
		t.Fatalf("GeoDist on a missing member: ok=%v err=%s", ok, err)
	}

	members, err := s.GeoRadius("g", 15, 37, 200, "km")
	if err != nil || len(members) != 2 {
		t.Fatalf("GeoRadius: %v members, err=%s", members, err)
	}
}

func TestGeoAddOutOfRange(t *testing.T) {
	s := New(0)

	if _, err := s.GeoAdd("g", map[string]GeoPoint{"a": {Lon: 200, Lat: 0}}); err == nil {
		t.Fatalf("GeoAdd with out-of-range longitude should fail")
	}
	if s.Exists("g") {
		t.Fatalf("GeoAdd should not create the key on a validation failure")
	}
}
