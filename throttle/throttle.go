// Package throttle decides when a new scan cycle is due, trading position
// coverage against battery and data volume.
package throttle

import (
	"time"

	"github.com/openbeacon/surveylog/geo"
)

// Policy holds the due thresholds for one radio class. The zero value is
// never due; mains populate policies from config.
type Policy struct {
	// MinDistanceM is the distance the device must have moved since the
	// last accepted update.
	MinDistanceM float64

	// MinInterval is the minimum time between accepted updates. Zero means
	// distance alone decides, which is the wireless-class baseline; cell
	// scans require both conditions.
	MinInterval time.Duration

	// AlwaysDue records continuously regardless of thresholds. Explicit
	// demo switch, so the battery trade-off stays auditable in config.
	AlwaysDue bool
}

// IsDue reports whether a new scan cycle should trigger at current, given the
// last accepted position and its wall-clock timestamp. A zero-value last
// position (fresh session) is always due, so the first update after a start
// is never suppressed.
func (p Policy) IsDue(current, last geo.Position, lastAt, now time.Time) bool {
	if p.AlwaysDue {
		return true
	}
	if last.IsZero() {
		return true
	}
	if current.DistanceTo(last) <= p.MinDistanceM {
		return false
	}
	if p.MinInterval > 0 && now.Sub(lastAt) <= p.MinInterval {
		return false
	}
	return true
}

// AcceptableAccuracy is the gate evaluated before any due-policy: a fix
// without a reported accuracy, or with accuracy above maxAccuracyM, is not
// eligible to trigger throttle evaluation at all.
func AcceptableAccuracy(p geo.Position, maxAccuracyM float64) bool {
	return p.HasAccuracy() && p.Accuracy <= maxAccuracyM
}
