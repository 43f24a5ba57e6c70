package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

type captureSink struct {
	locations []geo.Position
	cells     [][]radio.RawCell
	operators []string
	wifis     [][]radio.RawWifi
}

func (c *captureSink) OnLocation(_ context.Context, pos geo.Position) {
	c.locations = append(c.locations, pos)
}

func (c *captureSink) OnCellSignal(cells []radio.RawCell, operator, _, _ string) {
	c.cells = append(c.cells, cells)
	c.operators = append(c.operators, operator)
}

func (c *captureSink) OnWifiResults(_ context.Context, results []radio.RawWifi) {
	c.wifis = append(c.wifis, results)
}

const sampleFeed = `{"type":"cells","operator":"26201","operator_name":"TestNet","network_type":"EDGE","cells":[{"tech":"gsm","cid":12345,"area":100,"dbm":-71,"serving":true}]}
{"type":"location","position":{"lat":48.137,"lon":11.575,"accuracy":5,"time":"2024-06-01T12:00:00Z"}}

{"type":"wifis","results":[{"bssid":"aa:bb:cc:dd:ee:ff","ssid":"cafe","capabilities":"[ESS]","frequency":2412,"level":-60}]}
{"type":"bogus"}
not even json
`

func TestRunDispatchesRecords(t *testing.T) {
	sink := &captureSink{}
	f := &Feed{In: strings.NewReader(sampleFeed)}
	if err := f.Run(context.Background(), sink); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.locations) != 1 {
		t.Fatalf("got %d locations, want 1", len(sink.locations))
	}
	if got := sink.locations[0]; got.Lat != 48.137 || got.Lon != 11.575 {
		t.Errorf("location = (%v, %v)", got.Lat, got.Lon)
	}
	if len(sink.cells) != 1 || len(sink.cells[0]) != 1 {
		t.Fatalf("cells = %v", sink.cells)
	}
	if sink.operators[0] != "26201" {
		t.Errorf("operator = %q", sink.operators[0])
	}
	if got := sink.cells[0][0]; got.Tech != radio.TechGSM || got.CellID != 12345 {
		t.Errorf("cell = %+v", got)
	}
	if len(sink.wifis) != 1 || sink.wifis[0][0].BSSID != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("wifis = %v", sink.wifis)
	}
}

func TestDecodeCellDefaultsSentinels(t *testing.T) {
	cell, err := decodeCell([]byte(`{"tech":"cdma","dbm":-80,"serving":true}`))
	if err != nil {
		t.Fatalf("decodeCell: %v", err)
	}
	if cell.BaseID != radio.CDMAUnknownID || cell.NetworkID != radio.CDMAUnknownID || cell.SystemID != radio.CDMAUnknownID {
		t.Errorf("absent CDMA ids = (%d, %d, %d), want all %d", cell.BaseID, cell.NetworkID, cell.SystemID, radio.CDMAUnknownID)
	}
	if cell.PSC != radio.UnknownMember {
		t.Errorf("absent PSC = %d, want %d", cell.PSC, radio.UnknownMember)
	}

	cell, err = decodeCell([]byte(`{"tech":"cdma","base_id":1,"network_id":2,"system_id":3}`))
	if err != nil {
		t.Fatalf("decodeCell: %v", err)
	}
	if cell.BaseID != 1 || cell.NetworkID != 2 || cell.SystemID != 3 {
		t.Errorf("present CDMA ids = (%d, %d, %d)", cell.BaseID, cell.NetworkID, cell.SystemID)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &Feed{In: strings.NewReader(sampleFeed)}
	if err := f.Run(ctx, &captureSink{}); err == nil {
		t.Fatal("expected context error")
	}
}
