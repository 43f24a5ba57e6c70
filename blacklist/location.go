package blacklist

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/openbeacon/surveylog/geo"
)

// defaultRadiusM is used for circular zones that omit a radius.
const defaultRadiusM = 500

// Vertex is one polygon corner in a zone definition.
type Vertex struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// zoneDef is the on-disk shape of one exclusion zone: either a center with a
// radius, or a polygon with at least three vertices.
type zoneDef struct {
	Comment  string   `yaml:"comment,omitempty"`
	Lat      float64  `yaml:"lat,omitempty"`
	Lon      float64  `yaml:"lon,omitempty"`
	RadiusM  float64  `yaml:"radius_m,omitempty"`
	Vertices []Vertex `yaml:"vertices,omitempty"`
}

type zoneFile struct {
	Zones []zoneDef `yaml:"zones"`
}

type zone struct {
	comment string

	// circular zone
	center  geo.Position
	radiusM float64

	// polygon zone, with a precomputed bounding box for the fast reject
	vertices       []Vertex
	minLat, maxLat float64
	minLon, maxLon float64
}

// LocationList answers whether a position lies inside any configured
// exclusion zone (e.g. the user's home). Read-only after load; queried on
// every accepted location update.
type LocationList struct {
	zones []zone
}

// LoadLocationList reads zone definitions from a YAML file. An empty path or
// a missing file yields an empty list that blocks nothing.
func LoadLocationList(path string) *LocationList {
	l := &LocationList{}
	if path == "" {
		glog.Infof("no location blacklist configured")
		return l
	}
	data, err := os.ReadFile(path)
	if err != nil {
		glog.Warningf("location blacklist %q not loaded: %v", path, err)
		return l
	}

	var file zoneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		glog.Warningf("location blacklist %q not parsed: %v", path, err)
		return l
	}

	for i, def := range file.Zones {
		z, err := buildZone(def)
		if err != nil {
			glog.Warningf("skipping zone %d (%s): %v", i, def.Comment, err)
			continue
		}
		l.zones = append(l.zones, z)
	}
	glog.Infof("loaded %d location blacklist zones", len(l.zones))
	return l
}

func buildZone(def zoneDef) (zone, error) {
	if len(def.Vertices) > 0 {
		if len(def.Vertices) < 3 {
			return zone{}, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(def.Vertices))
		}
		z := zone{comment: def.Comment, vertices: def.Vertices}
		z.minLat, z.maxLat = def.Vertices[0].Lat, def.Vertices[0].Lat
		z.minLon, z.maxLon = def.Vertices[0].Lon, def.Vertices[0].Lon
		for _, v := range def.Vertices[1:] {
			z.minLat = min(z.minLat, v.Lat)
			z.maxLat = max(z.maxLat, v.Lat)
			z.minLon = min(z.minLon, v.Lon)
			z.maxLon = max(z.maxLon, v.Lon)
		}
		return z, nil
	}

	center, err := geo.NewCoordinate(def.Lat, def.Lon)
	if err != nil {
		return zone{}, fmt.Errorf("zone center: %w", err)
	}
	radius := def.RadiusM
	if radius <= 0 {
		radius = defaultRadiusM
	}
	return zone{comment: def.Comment, center: center, radiusM: radius}, nil
}

// Contains reports whether pos lies inside any zone.
func (l *LocationList) Contains(pos geo.Position) bool {
	for i := range l.zones {
		if l.zones[i].contains(pos) {
			return true
		}
	}
	return false
}

// Len returns the number of loaded zones.
func (l *LocationList) Len() int {
	return len(l.zones)
}

func (z *zone) contains(pos geo.Position) bool {
	if len(z.vertices) == 0 {
		return pos.DistanceTo(z.center) < z.radiusM
	}
	if pos.Lat < z.minLat || pos.Lat > z.maxLat || pos.Lon < z.minLon || pos.Lon > z.maxLon {
		return false
	}
	return pointInPolygon(pos.Lat, pos.Lon, z.vertices)
}

// pointInPolygon is a standard ray cast over the polygon edges.
func pointInPolygon(lat, lon float64, verts []Vertex) bool {
	inside := false
	j := len(verts) - 1
	for i := 0; i < len(verts); i++ {
		vi, vj := verts[i], verts[j]
		if (vi.Lon > lon) != (vj.Lon > lon) &&
			lat < (vj.Lat-vi.Lat)*(lon-vi.Lon)/(vj.Lon-vi.Lon)+vi.Lat {
			inside = !inside
		}
		j = i
	}
	return inside
}
