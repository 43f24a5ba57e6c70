// Package tracker owns the scan coordination state machine: it fuses
// location fixes with telephony pushes and wireless scan completions into
// normalized, filtered, batched observations.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/blacklist"
	"github.com/openbeacon/surveylog/catalog"
	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
	"github.com/openbeacon/surveylog/throttle"
)

// badBSSID is reported by some modems for a nonexistent access point.
const badBSSID = "00:00:00:00:00:00"

// Store is the persistence collaborator. Each batch call must be atomic:
// after a crash either zero or all records of a batch exist, never some.
// Failures are recoverable; the tracker logs them and keeps the session.
type Store interface {
	StoreCellObservations(ctx context.Context, batch []radio.CellObservation, begin, end geo.Position) error
	StoreWifiObservations(ctx context.Context, batch []radio.WifiObservation, begin, end geo.Position) error
	StoreSessionMeta(ctx context.Context, meta radio.SessionMeta) error
}

// WifiScanner triggers an asynchronous wireless scan. Fire and forget;
// results come back through OnWifiResults on the collaborator's schedule.
type WifiScanner interface {
	TriggerScan()
}

// Options wires a Tracker. Store is required; everything else has a working
// zero/nil default (nil scanner disables wifi scans, nil filters block
// nothing).
type Options struct {
	Store   Store
	Scanner WifiScanner

	CellPolicy throttle.Policy
	WifiPolicy throttle.Policy
	// MaxAccuracyM is the accuracy gate ceiling in meters.
	MaxAccuracyM float64

	LocationBlacklist *blacklist.LocationList
	SSIDBlacklist     *blacklist.IdentifierList
	BSSIDBlacklist    *blacklist.IdentifierList
	Catalog           *catalog.Catalog

	// Meta is the device/software identity stored once per session start;
	// the session field is filled in by Start.
	Meta radio.SessionMeta

	// EventBuffer sizes the summary event channel (default 16).
	EventBuffer int
}

// Tracker is the scan coordinator. The three event sources (location fixes,
// telephony pushes, wireless scan completions) may call in from different
// goroutines; all mutable state is serialized behind one mutex.
type Tracker struct {
	store   Store
	scanner WifiScanner

	cellPolicy   throttle.Policy
	wifiPolicy   throttle.Policy
	maxAccuracyM float64

	locationBL *blacklist.LocationList
	ssidBL     *blacklist.IdentifierList
	bssidBL    *blacklist.IdentifierList
	catalog    *catalog.Catalog
	meta       radio.SessionMeta

	events chan Event

	mu       sync.Mutex
	tracking bool
	session  string

	// last known location, updated on every gated fix
	lastLoc geo.Position

	// throttle state per radio class
	cellSavedAt   geo.Position
	cellSavedTime time.Time
	wifiSavedAt   geo.Position

	// wireless scan pairing: at most one scan in flight, its trigger
	// position remembered for the begin half of the batch
	awaitingWifi bool
	scanBegin    geo.Position

	// latest telephony push, materialized on the next due location fix
	currentCells []radio.RawCell
	operator     string
	operatorName string
	networkType  string
}

// New builds a stopped Tracker; call Start to begin a session.
func New(opts Options) *Tracker {
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 16
	}
	t := &Tracker{
		store:        opts.Store,
		scanner:      opts.Scanner,
		cellPolicy:   opts.CellPolicy,
		wifiPolicy:   opts.WifiPolicy,
		maxAccuracyM: opts.MaxAccuracyM,
		locationBL:   opts.LocationBlacklist,
		ssidBL:       opts.SSIDBlacklist,
		bssidBL:      opts.BSSIDBlacklist,
		catalog:      opts.Catalog,
		meta:         opts.Meta,
		events:       make(chan Event, buffer),
	}
	if t.locationBL == nil {
		t.locationBL = blacklist.LoadLocationList("")
	}
	if t.ssidBL == nil {
		t.ssidBL = blacklist.LoadIdentifierList("", "")
	}
	if t.bssidBL == nil {
		t.bssidBL = blacklist.LoadIdentifierList("", "")
	}
	if t.catalog == nil {
		t.catalog = catalog.Open("")
	}
	return t
}

// Events returns the summary notification channel. Events are dropped when
// nobody drains the channel; observers are informational only.
func (t *Tracker) Events() <-chan Event {
	return t.events
}

// Start begins a tracking session with the externally supplied id and stores
// the one-time session metadata record. Safe to call while already tracking:
// the throttle state resets so the first update of the new session is never
// suppressed. The returned error is a recoverable metadata persistence
// failure; the session is tracking either way.
func (t *Tracker) Start(ctx context.Context, sessionID string) error {
	t.mu.Lock()
	if t.tracking {
		glog.Infof("restarting tracking on session %s (was %s)", sessionID, t.session)
	} else {
		glog.Infof("start tracking on session %s", sessionID)
	}
	t.tracking = true
	t.session = sessionID
	t.lastLoc = geo.Position{}
	t.cellSavedAt = geo.Position{}
	t.cellSavedTime = time.Time{}
	t.wifiSavedAt = geo.Position{}
	t.awaitingWifi = false
	t.currentCells = nil
	meta := t.meta
	meta.Session = sessionID
	t.mu.Unlock()

	if err := t.store.StoreSessionMeta(ctx, meta); err != nil {
		glog.Warningf("session metadata not stored: %v", err)
		return fmt.Errorf("storing session metadata: %w", err)
	}
	return nil
}

// Stop ends the session. Results of an already-triggered wireless scan that
// arrive afterwards are discarded at the result-handling boundary; there is
// no way to cancel the scan itself.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	glog.Infof("stop tracking on session %s", t.session)
	t.tracking = false
	t.session = ""
	t.awaitingWifi = false
	t.currentCells = nil
}

// Tracking reports whether a session is active.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Session returns the active session id, empty when not tracking.
func (t *Tracker) Session() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// OnCellSignal records the latest telephony push. Telephony callbacks are
// decoupled from positioning, so the descriptors are only materialized into
// observations on the next due location fix, which guarantees every stored
// cell carries a position.
func (t *Tracker) OnCellSignal(cells []radio.RawCell, operator, operatorName, networkType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}
	t.currentCells = cells
	t.operator = operator
	t.operatorName = operatorName
	t.networkType = networkType
}

// OnLocation processes one location fix: it evaluates both due-policies,
// materializes pending cell descriptors and triggers wireless scans as
// needed, then advances the last known location.
func (t *Tracker) OnLocation(ctx context.Context, pos geo.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking {
		return
	}

	// Gate failures discard the fix entirely, including the "last known
	// location" update: a bad fix must not become a batch end position.
	if !throttle.AcceptableAccuracy(pos, t.maxAccuracyM) {
		glog.V(1).Infof("accuracy too bad (%.0fm), skipping cycle", pos.Accuracy)
		return
	}
	pos.Session = t.session

	if t.cellPolicy.IsDue(pos, t.cellSavedAt, t.cellSavedTime, pos.Time) {
		if t.performCellsUpdate(ctx, pos) {
			t.cellSavedAt = pos
			t.cellSavedTime = pos.Time
		}
	} else {
		glog.V(1).Infof("cell update skipped, too close to last location or too soon")
	}

	if t.wifiPolicy.IsDue(pos, t.wifiSavedAt, time.Time{}, pos.Time) {
		if t.awaitingWifi {
			glog.V(1).Infof("wifi scan already in flight, not triggering another")
		} else if t.scanner != nil {
			t.scanner.TriggerScan()
			t.awaitingWifi = true
			t.scanBegin = pos
			glog.V(1).Infof("triggered wifi scan, waiting for results")
		}
	}

	t.lastLoc = pos
}

// performCellsUpdate normalizes and persists the pushed cell descriptors at
// pos. Returns true when the throttle state should advance. Caller holds mu.
func (t *Tracker) performCellsUpdate(ctx context.Context, pos geo.Position) bool {
	if len(t.currentCells) == 0 {
		glog.V(1).Infof("no cell descriptors pushed yet, skipping cell update")
		return false
	}

	// Inside a blacklisted zone the batch is dropped, but the throttle
	// advances so we do not retry the same zone every cycle.
	if t.locationBL.Contains(pos) {
		t.emit(Event{Kind: EventBlacklisted, Reason: ReasonLocation})
		glog.V(1).Infof("position is blacklisted, dropping cell batch")
		return true
	}

	var batch []radio.CellObservation
	var serving *radio.CellObservation
	for _, raw := range t.currentCells {
		obs := radio.Normalize(raw, pos, t.session, t.operator, t.operatorName, t.networkType)
		if obs == nil {
			continue
		}
		batch = append(batch, *obs)
		if obs.Serving && serving == nil {
			serving = obs
		}
	}
	if len(batch) == 0 {
		glog.V(1).Infof("no valid cell identity in push, skipping cell update")
		return false
	}

	if err := t.store.StoreCellObservations(ctx, batch, pos, pos); err != nil {
		glog.Warningf("cell batch not stored: %v", err)
		return false
	}

	if serving != nil {
		t.emit(Event{Kind: EventNewCell, Cell: serving})
	}
	return true
}

// OnWifiResults pairs an asynchronous scan completion with the position that
// triggered it, filters and classifies each entry, and persists the batch as
// one unit. Stray results (no scan awaited, or session stopped since the
// trigger) are silently discarded.
func (t *Tracker) OnWifiResults(ctx context.Context, results []radio.RawWifi) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.tracking || !t.awaitingWifi {
		glog.V(1).Infof("stale wifi scan result, discarding")
		return
	}
	t.awaitingWifi = false

	if results == nil {
		glog.Warningf("wifi collaborator returned nil scan results")
		return
	}
	if !t.scanBegin.Valid() || !t.lastLoc.Valid() {
		glog.Warningf("dropping wifi batch: invalid begin or end position")
		return
	}

	// A blacklisted trigger position drops the whole batch but still
	// advances the throttle, otherwise we would retry the zone forever.
	if t.locationBL.Contains(t.scanBegin) {
		t.wifiSavedAt = t.scanBegin
		t.emit(Event{Kind: EventBlacklisted, Reason: ReasonLocation})
		glog.V(1).Infof("scan position is blacklisted, dropping wifi batch")
		return
	}

	begin, end := t.scanBegin, t.lastLoc
	batch := make([]radio.WifiObservation, 0, len(results))
	freeSeen := false
	var freeSSID string
	for _, raw := range results {
		if raw.BSSID == badBSSID {
			glog.V(1).Infof("ignoring bogus access point %s", badBSSID)
			continue
		}
		if t.ssidBL.Contains(raw.SSID) {
			t.emit(Event{Kind: EventBlacklisted, Reason: ReasonSSID, Detail: raw.SSID})
			glog.V(1).Infof("ignored %s (on ssid blacklist)", raw.SSID)
			continue
		}
		bssid := radio.CanonicalBSSID(raw.BSSID)
		if t.bssidBL.Contains(bssid) {
			t.emit(Event{Kind: EventBlacklisted, Reason: ReasonBSSID, Detail: bssid})
			glog.V(1).Infof("ignored %s (on bssid blacklist)", bssid)
			continue
		}

		obs := radio.NormalizeWifi(raw, t.catalog.Classify(bssid), begin, end, t.session, begin.Time)
		if obs.Free() {
			freeSeen = true
			freeSSID = obs.SSID
		}
		batch = append(batch, obs)
	}

	if err := t.store.StoreWifiObservations(ctx, batch, begin, end); err != nil {
		glog.Warningf("wifi batch not stored: %v", err)
		return
	}
	t.wifiSavedAt = t.scanBegin

	t.emit(Event{Kind: EventWifiBatch, WifiCount: len(batch), FreeSeen: freeSeen})
	if freeSeen {
		t.emit(Event{Kind: EventFreeWifi, Detail: freeSSID})
	}
}

// emit delivers a summary event without ever blocking the coordinator.
func (t *Tracker) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		glog.V(2).Infof("event channel full, dropping %v", ev.Kind)
	}
}
