package tracker

import "github.com/openbeacon/surveylog/radio"

// EventKind discriminates the summary notifications the tracker emits.
type EventKind int

const (
	// EventNewCell is emitted after a cell batch was persisted; Cell holds
	// the serving observation.
	EventNewCell EventKind = iota
	// EventWifiBatch is emitted after a wifi batch was persisted.
	EventWifiBatch
	// EventBlacklisted is emitted when a record or batch was skipped.
	EventBlacklisted
	// EventFreeWifi is emitted when an open network was observed.
	EventFreeWifi
)

// BlacklistReason names why an item was skipped.
type BlacklistReason int

const (
	ReasonLocation BlacklistReason = iota
	ReasonSSID
	ReasonBSSID
)

func (r BlacklistReason) String() string {
	switch r {
	case ReasonSSID:
		return "ssid"
	case ReasonBSSID:
		return "bssid"
	default:
		return "location"
	}
}

// Event is a fire-and-forget summary notification for observers (UI,
// counters). Delivery is best effort; the tracker never blocks on a slow or
// absent observer.
type Event struct {
	Kind EventKind

	// Cell is set for EventNewCell.
	Cell *radio.CellObservation

	// WifiCount and FreeSeen are set for EventWifiBatch.
	WifiCount int
	FreeSeen  bool

	// Reason and Detail are set for EventBlacklisted; Detail also carries
	// the SSID for EventFreeWifi.
	Reason BlacklistReason
	Detail string
}
