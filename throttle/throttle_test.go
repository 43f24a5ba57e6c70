package throttle

import (
	"testing"
	"time"

	"github.com/openbeacon/surveylog/geo"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fix(t *testing.T, lat, lon float64, at time.Time) geo.Position {
	t.Helper()
	p, err := geo.New(lat, lon, 5, at)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	return p
}

func TestCellPolicyRequiresDistanceAndInterval(t *testing.T) {
	p := Policy{MinDistanceM: 35, MinInterval: 2 * time.Second}
	last := fix(t, 48.0, 11.0, t0)

	// ~220 m north, but only 500 ms later: interval blocks.
	near := fix(t, 48.002, 11.0, t0.Add(500*time.Millisecond))
	if p.IsDue(near, last, t0, t0.Add(500*time.Millisecond)) {
		t.Error("due despite interval below minimum (AND semantics)")
	}

	// ~1 m away, 5 s later: distance blocks.
	closeBy := fix(t, 48.00001, 11.0, t0.Add(5*time.Second))
	if p.IsDue(closeBy, last, t0, t0.Add(5*time.Second)) {
		t.Error("due despite distance below minimum")
	}

	// Both satisfied.
	far := fix(t, 48.002, 11.0, t0.Add(5*time.Second))
	if !p.IsDue(far, last, t0, t0.Add(5*time.Second)) {
		t.Error("not due despite distance and interval both satisfied")
	}
}

func TestWifiPolicyDistanceAlone(t *testing.T) {
	p := Policy{MinDistanceM: 35}
	last := fix(t, 48.0, 11.0, t0)

	// Far enough, no time at all elapsed: still due.
	far := fix(t, 48.002, 11.0, t0)
	if !p.IsDue(far, last, t0, t0) {
		t.Error("wifi class must be due on distance alone")
	}
}

func TestAlwaysDueOverride(t *testing.T) {
	p := Policy{MinDistanceM: 35, MinInterval: 2 * time.Second, AlwaysDue: true}
	last := fix(t, 48.0, 11.0, t0)
	same := fix(t, 48.0, 11.0, t0.Add(time.Millisecond))
	if !p.IsDue(same, last, t0, t0.Add(time.Millisecond)) {
		t.Error("always-due override must ignore thresholds")
	}
}

func TestFreshSessionAlwaysDue(t *testing.T) {
	p := Policy{MinDistanceM: 35, MinInterval: 2 * time.Second}
	current := fix(t, 48.0, 11.0, t0)
	if !p.IsDue(current, geo.Position{}, time.Time{}, t0) {
		t.Error("first update after session start must never be suppressed")
	}
}

func TestAcceptableAccuracy(t *testing.T) {
	good := fix(t, 48.0, 11.0, t0) // accuracy 5
	if !AcceptableAccuracy(good, 25) {
		t.Error("accuracy 5 within ceiling 25 must pass")
	}
	coarse, err := geo.New(48.0, 11.0, 80, t0)
	if err != nil {
		t.Fatal(err)
	}
	if AcceptableAccuracy(coarse, 25) {
		t.Error("accuracy above ceiling must fail the gate")
	}
	noAcc, err := geo.NewCoordinate(48.0, 11.0)
	if err != nil {
		t.Fatal(err)
	}
	if AcceptableAccuracy(noAcc, 25) {
		t.Error("missing accuracy must fail the gate")
	}
}
