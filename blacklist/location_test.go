package blacklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openbeacon/surveylog/geo"
)

func writeZones(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing zones: %v", err)
	}
	return path
}

func coord(t *testing.T, lat, lon float64) geo.Position {
	t.Helper()
	p, err := geo.NewCoordinate(lat, lon)
	if err != nil {
		t.Fatalf("coordinate (%v, %v): %v", lat, lon, err)
	}
	return p
}

func TestCircularZone(t *testing.T) {
	l := LoadLocationList(writeZones(t, `
zones:
  - comment: test area
    lat: 49.55306
    lon: 9.0057
    radius_m: 550
`))
	if l.Len() != 1 {
		t.Fatalf("loaded %d zones, want 1", l.Len())
	}

	// The exact center is always contained for radius > 0.
	if !l.Contains(coord(t, 49.55306, 9.0057)) {
		t.Error("zone center must be contained")
	}
	// ~330 m east of center: inside.
	if !l.Contains(coord(t, 49.55306, 9.0103)) {
		t.Error("position within radius must be contained")
	}
	// ~3.5 km away: outside.
	if l.Contains(coord(t, 49.58306, 9.0057)) {
		t.Error("position outside radius must not be contained")
	}
}

func TestCircularZoneDefaultRadius(t *testing.T) {
	l := LoadLocationList(writeZones(t, `
zones:
  - lat: 48.0
    lon: 11.0
`))
	// ~220 m from center, inside the 500 m default.
	if !l.Contains(coord(t, 48.002, 11.0)) {
		t.Error("default radius should apply when radius_m is omitted")
	}
}

func TestPolygonZone(t *testing.T) {
	l := LoadLocationList(writeZones(t, `
zones:
  - comment: campus
    vertices:
      - {lat: 48.0, lon: 11.0}
      - {lat: 48.0, lon: 11.1}
      - {lat: 48.1, lon: 11.1}
      - {lat: 48.1, lon: 11.0}
`))
	if !l.Contains(coord(t, 48.05, 11.05)) {
		t.Error("point inside polygon must be contained")
	}
	if l.Contains(coord(t, 48.2, 11.05)) {
		t.Error("point outside polygon must not be contained")
	}
}

func TestLocationListMissingFileBlocksNothing(t *testing.T) {
	l := LoadLocationList("/nonexistent/zones.yaml")
	if l.Contains(coord(t, 48.0, 11.0)) {
		t.Error("missing zone file must block nothing")
	}
}

func TestLocationListSkipsInvalidZones(t *testing.T) {
	l := LoadLocationList(writeZones(t, `
zones:
  - lat: 0
    lon: 0
  - lat: 48.0
    lon: 11.0
    radius_m: 100
`))
	if l.Len() != 1 {
		t.Fatalf("loaded %d zones, want 1 (invalid center skipped)", l.Len())
	}
}
