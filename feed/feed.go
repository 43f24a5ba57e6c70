// Package feed replays a recorded survey from a JSON-lines file into the
// tracker, standing in for the live location and radio collaborators of a
// handset. One JSON object per line, discriminated by "type".
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

// Sink receives the replayed collaborator callbacks, usually a
// tracker.Tracker.
type Sink interface {
	OnLocation(ctx context.Context, pos geo.Position)
	OnCellSignal(cells []radio.RawCell, operator, operatorName, networkType string)
	OnWifiResults(ctx context.Context, results []radio.RawWifi)
}

// Record is one line of the feed file.
type Record struct {
	Type string `json:"type"`

	// location
	Position *geo.Position `json:"position,omitempty"`

	// cells
	Operator     string            `json:"operator,omitempty"`
	OperatorName string            `json:"operator_name,omitempty"`
	NetworkType  string            `json:"network_type,omitempty"`
	Cells        []json.RawMessage `json:"cells,omitempty"`

	// wifis
	Results []radio.RawWifi `json:"results,omitempty"`
}

const (
	recordLocation = "location"
	recordCells    = "cells"
	recordWifis    = "wifis"
)

// Feed reads Records from In and dispatches them to a Sink.
type Feed struct {
	In io.Reader

	// Realtime replays location records spaced by their timestamps
	// instead of as fast as possible. Gaps are capped at MaxGap.
	Realtime bool
	MaxGap   time.Duration
}

// decodeCell parses one raw cell entry. Absent CDMA ids and scrambling codes
// must come out as their unreported sentinels, not as zero, so the sentinels
// are set before decoding.
func decodeCell(msg json.RawMessage) (radio.RawCell, error) {
	cell := radio.RawCell{
		PSC:       radio.UnknownMember,
		BaseID:    radio.CDMAUnknownID,
		NetworkID: radio.CDMAUnknownID,
		SystemID:  radio.CDMAUnknownID,
	}
	if err := json.Unmarshal(msg, &cell); err != nil {
		return radio.RawCell{}, err
	}
	return cell, nil
}

// Run replays the feed until In is exhausted or ctx is canceled. Lines that
// fail to parse are logged and skipped; the replay keeps going.
func (f *Feed) Run(ctx context.Context, sink Sink) error {
	maxGap := f.MaxGap
	if maxGap <= 0 {
		maxGap = 5 * time.Second
	}

	var lastAt time.Time
	scanner := bufio.NewScanner(f.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			glog.Warningf("feed line %d: skipping unparseable record: %s", lineNo, err)
			continue
		}

		switch rec.Type {
		case recordLocation:
			if rec.Position == nil {
				glog.Warningf("feed line %d: location record without position", lineNo)
				continue
			}
			pos := *rec.Position
			if f.Realtime && !lastAt.IsZero() && pos.Time.After(lastAt) {
				gap := pos.Time.Sub(lastAt)
				if gap > maxGap {
					gap = maxGap
				}
				select {
				case <-time.After(gap):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			lastAt = pos.Time
			sink.OnLocation(ctx, pos)
		case recordCells:
			cells := make([]radio.RawCell, 0, len(rec.Cells))
			for _, msg := range rec.Cells {
				cell, err := decodeCell(msg)
				if err != nil {
					glog.Warningf("feed line %d: skipping bad cell entry: %s", lineNo, err)
					continue
				}
				cells = append(cells, cell)
			}
			sink.OnCellSignal(cells, rec.Operator, rec.OperatorName, rec.NetworkType)
		case recordWifis:
			sink.OnWifiResults(ctx, rec.Results)
		default:
			glog.Warningf("feed line %d: unknown record type %q", lineNo, rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading feed: %w", err)
	}
	glog.Infof("feed done after %d lines", lineNo)
	return nil
}
