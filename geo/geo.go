// Package geo holds the position sample type shared by all scan pipelines.
package geo

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidLocation is returned when a position sample is rejected at
// construction, e.g. the provider handed us the (0, 0) "no fix yet" default.
var ErrInvalidLocation = errors.New("invalid location")

const earthRadiusM = 6371000.0

// Position is a single location fix. Once constructed it is never mutated;
// handlers pass copies around.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt,omitempty"`

	// Accuracy is the horizontal accuracy in meters. Negative means the
	// provider did not report one.
	Accuracy float64 `json:"accuracy"`

	Bearing float64 `json:"bearing,omitempty"`
	Speed   float64 `json:"speed,omitempty"`

	// Source is the provider tag, e.g. "gps" or "network".
	Source string `json:"source,omitempty"`

	Time    time.Time `json:"time"`
	Session string    `json:"session,omitempty"`

	// Waypoint marks a manually placed position rather than a fix.
	Waypoint bool `json:"waypoint,omitempty"`
}

// New validates and returns a position fix. A fix needs a reported accuracy;
// use NewCoordinate for bare coordinates such as blacklist zone centers.
func New(lat, lon, accuracy float64, at time.Time) (Position, error) {
	p := Position{Lat: lat, Lon: lon, Accuracy: accuracy, Time: at}
	if accuracy < 0 {
		return Position{}, ErrInvalidLocation
	}
	if err := validateCoords(lat, lon); err != nil {
		return Position{}, err
	}
	return p, nil
}

// NewCoordinate validates a bare coordinate pair without accuracy.
func NewCoordinate(lat, lon float64) (Position, error) {
	if err := validateCoords(lat, lon); err != nil {
		return Position{}, err
	}
	return Position{Lat: lat, Lon: lon, Accuracy: -1}, nil
}

func validateCoords(lat, lon float64) error {
	// Lat 0 / lon 0 is the providers' "no fix yet" default, not a real
	// position (it is in the Atlantic off the African coast).
	if lat == 0 && lon == 0 {
		return ErrInvalidLocation
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// Valid reports whether p looks like a real fix. The zero value and the
// (0, 0) default are both invalid.
func (p Position) Valid() bool {
	return validateCoords(p.Lat, p.Lon) == nil
}

// HasAccuracy reports whether the provider reported a horizontal accuracy.
func (p Position) HasAccuracy() bool {
	return p.Accuracy >= 0
}

// IsZero reports whether p is the sentinel "never set" value used to force
// the first throttle evaluation after a session start.
func (p Position) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0 && p.Time.IsZero()
}

// DistanceTo returns the great-circle distance to other in meters.
func (p Position) DistanceTo(other Position) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
