package geo

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewRejectsInvalidPositions(t *testing.T) {
	now := time.Now()
	for _, tc := range []struct {
		name     string
		lat, lon float64
		accuracy float64
	}{
		{"no fix default", 0, 0, 5},
		{"lat out of range", 91, 11, 5},
		{"lat below range", -90.1, 11, 5},
		{"lon out of range", 48, 180.5, 5},
		{"missing accuracy", 48, 11, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.lat, tc.lon, tc.accuracy, now)
			if !errors.Is(err, ErrInvalidLocation) {
				t.Fatalf("New(%v, %v, %v) err = %v, want ErrInvalidLocation", tc.lat, tc.lon, tc.accuracy, err)
			}
		})
	}
}

func TestNewAcceptsBoundaryCoordinates(t *testing.T) {
	for _, tc := range []struct{ lat, lon float64 }{
		{90, 0.1}, {-90, 0.1}, {0.1, 180}, {0.1, -180},
	} {
		if _, err := New(tc.lat, tc.lon, 10, time.Now()); err != nil {
			t.Errorf("New(%v, %v) unexpected error: %v", tc.lat, tc.lon, err)
		}
	}
}

func TestNewCoordinateSkipsAccuracyCheck(t *testing.T) {
	p, err := NewCoordinate(49.55306, 9.0057)
	if err != nil {
		t.Fatalf("NewCoordinate: %v", err)
	}
	if p.HasAccuracy() {
		t.Error("coordinate should not report accuracy")
	}
	if !p.Valid() {
		t.Error("coordinate should be valid")
	}
}

func TestDistanceTo(t *testing.T) {
	munich, _ := NewCoordinate(48.137, 11.575)
	augsburg, _ := NewCoordinate(48.366, 10.898)

	// Munich to Augsburg is roughly 56 km.
	got := munich.DistanceTo(augsburg)
	if math.Abs(got-56000) > 2000 {
		t.Errorf("DistanceTo = %f, want roughly 56000", got)
	}
	if d := munich.DistanceTo(munich); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestIsZero(t *testing.T) {
	var p Position
	if !p.IsZero() {
		t.Error("zero value should report IsZero")
	}
	q, _ := NewCoordinate(48, 11)
	if q.IsZero() {
		t.Error("real coordinate should not report IsZero")
	}
}
