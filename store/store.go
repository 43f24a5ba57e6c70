// Package store contains the persistence collaborators observation batches
// are handed to, plus the wire types shared with the batch receiver server.
package store

import (
	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

// CellBatchRequest is the wire shape of one cell observation batch.
type CellBatchRequest struct {
	Begin geo.Position            `json:"begin"`
	End   geo.Position            `json:"end"`
	Cells []radio.CellObservation `json:"cells"`
}

// WifiBatchRequest is the wire shape of one wifi observation batch.
type WifiBatchRequest struct {
	Begin geo.Position            `json:"begin"`
	End   geo.Position            `json:"end"`
	Wifis []radio.WifiObservation `json:"wifis"`
}
