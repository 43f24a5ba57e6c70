package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

// CSV writes observations to two writers, one line per record. Handy for
// piping a survey run into other tools; there is no atomicity beyond what
// the underlying writer gives.
type CSV struct {
	CellOut io.Writer
	WifiOut io.Writer

	once  sync.Once
	cells *csv.Writer
	wifis *csv.Writer
}

func (c *CSV) init() {
	c.once.Do(func() {
		c.cells = csv.NewWriter(c.CellOut)
		c.cells.Write([]string{
			"Session", "TimeUnixMilli", "Tech", "NetworkType", "Operator", "MCC", "MNC", "OperatorName",
			"StrengthDBm", "StrengthASU", "Serving", "CellID", "ControllerID", "Area", "PSC",
			"BaseID", "NetworkID", "SystemID", "BeginLat", "BeginLon", "EndLat", "EndLon",
		})
		c.wifis = csv.NewWriter(c.WifiOut)
		c.wifis.Write([]string{
			"Session", "TimeUnixMilli", "BSSID", "SSID", "Capabilities", "Frequency", "Level", "Status",
			"BeginLat", "BeginLon", "EndLat", "EndLon",
		})
	})
}

func (c *CSV) StoreCellObservations(_ context.Context, batch []radio.CellObservation, begin, end geo.Position) error {
	c.init()
	for _, o := range batch {
		if err := c.cells.Write([]string{
			o.Session,
			fmt.Sprintf("%d", o.Time.UnixMilli()),
			o.Tech.String(),
			o.NetworkType,
			o.Operator,
			o.MCC,
			o.MNC,
			o.OperatorName,
			fmt.Sprintf("%d", o.StrengthDBm),
			fmt.Sprintf("%d", o.StrengthASU),
			fmt.Sprintf("%t", o.Serving),
			fmt.Sprintf("%d", o.CellID),
			fmt.Sprintf("%d", o.ControllerID),
			fmt.Sprintf("%d", o.Area),
			fmt.Sprintf("%d", o.PSC),
			o.BaseID,
			o.NetworkID,
			o.SystemID,
			fmt.Sprintf("%f", begin.Lat),
			fmt.Sprintf("%f", begin.Lon),
			fmt.Sprintf("%f", end.Lat),
			fmt.Sprintf("%f", end.Lon),
		}); err != nil {
			glog.Warningf("error while writing cell CSV line: %s", err)
		}
	}
	c.cells.Flush()
	return c.cells.Error()
}

func (c *CSV) StoreWifiObservations(_ context.Context, batch []radio.WifiObservation, begin, end geo.Position) error {
	c.init()
	for _, o := range batch {
		if err := c.wifis.Write([]string{
			o.Session,
			fmt.Sprintf("%d", o.Time.UnixMilli()),
			o.BSSID,
			o.SSID,
			o.Capabilities,
			fmt.Sprintf("%d", o.Frequency),
			fmt.Sprintf("%d", o.Level),
			o.Status.String(),
			fmt.Sprintf("%f", begin.Lat),
			fmt.Sprintf("%f", begin.Lon),
			fmt.Sprintf("%f", end.Lat),
			fmt.Sprintf("%f", end.Lon),
		}); err != nil {
			glog.Warningf("error while writing wifi CSV line: %s", err)
		}
	}
	c.wifis.Flush()
	return c.wifis.Error()
}

func (c *CSV) StoreSessionMeta(_ context.Context, meta radio.SessionMeta) error {
	// Session metadata has no CSV surface; log it instead.
	glog.Infof("session %s on %s %s (%s), client %s/%s",
		meta.Session, meta.Manufacturer, meta.Model, meta.OSVersion, meta.ClientID, meta.ClientVersion)
	return nil
}
