package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

const (
	sqliteCreateCellsTmpl = `CREATE TABLE IF NOT EXISTS cells (
		"ID"            INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Session"       TEXT NOT NULL,
		"Time"          INTEGER,
		"Tech"          TEXT,
		"NetworkType"   TEXT,
		"Operator"      TEXT,
		"MCC"           TEXT,
		"MNC"           TEXT,
		"OperatorName"  TEXT,
		"StrengthDBm"   INTEGER,
		"StrengthASU"   INTEGER,
		"Serving"       INTEGER,
		"LogicalCellID" INTEGER,
		"CellID"        INTEGER,
		"ControllerID"  INTEGER,
		"Area"          INTEGER,
		"PSC"           INTEGER,
		"BaseID"        TEXT,
		"NetworkID"     TEXT,
		"SystemID"      TEXT,
		"BeginLat"      REAL,
		"BeginLon"      REAL,
		"BeginAccuracy" REAL,
		"EndLat"        REAL,
		"EndLon"        REAL,
		"EndAccuracy"   REAL
	);`
	sqliteCreateWifisTmpl = `CREATE TABLE IF NOT EXISTS wifis (
		"ID"            INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Session"       TEXT NOT NULL,
		"Time"          INTEGER,
		"BSSID"         TEXT NOT NULL,
		"SSID"          TEXT,
		"Capabilities"  TEXT,
		"Frequency"     INTEGER,
		"Level"         INTEGER,
		"Status"        TEXT,
		"BeginLat"      REAL,
		"BeginLon"      REAL,
		"BeginAccuracy" REAL,
		"EndLat"        REAL,
		"EndLon"        REAL,
		"EndAccuracy"   REAL
	);`
	sqliteCreateSessionsTmpl = `CREATE TABLE IF NOT EXISTS session_meta (
		"Session"       TEXT NOT NULL PRIMARY KEY,
		"Manufacturer"  TEXT,
		"Model"         TEXT,
		"OSVersion"     TEXT,
		"ClientID"      TEXT,
		"ClientVersion" TEXT
	);`

	sqliteInsertCellTmpl = `INSERT INTO cells (
		Session, Time, Tech, NetworkType, Operator, MCC, MNC, OperatorName,
		StrengthDBm, StrengthASU, Serving, LogicalCellID, CellID, ControllerID,
		Area, PSC, BaseID, NetworkID, SystemID,
		BeginLat, BeginLon, BeginAccuracy, EndLat, EndLon, EndAccuracy
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	sqliteInsertWifiTmpl = `INSERT INTO wifis (
		Session, Time, BSSID, SSID, Capabilities, Frequency, Level, Status,
		BeginLat, BeginLon, BeginAccuracy, EndLat, EndLon, EndAccuracy
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	sqliteInsertSessionTmpl = `INSERT OR REPLACE INTO session_meta (
		Session, Manufacturer, Model, OSVersion, ClientID, ClientVersion
	) VALUES (?, ?, ?, ?, ?, ?);`
)

// SQLite persists observation batches into a local sqlite file. Each batch
// goes through one transaction, so a crash leaves zero or all of its records.
type SQLite struct {
	DB *sql.DB

	initOnce sync.Once
	initErr  error
}

func (s *SQLite) init() error {
	s.initOnce.Do(func() {
		for _, stmt := range []string{sqliteCreateCellsTmpl, sqliteCreateWifisTmpl, sqliteCreateSessionsTmpl} {
			if _, err := s.DB.Exec(stmt); err != nil {
				s.initErr = fmt.Errorf("unable to create table: %w", err)
				return
			}
		}
	})
	return s.initErr
}

func (s *SQLite) StoreCellObservations(ctx context.Context, batch []radio.CellObservation, begin, end geo.Position) error {
	if err := s.init(); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, c := range batch {
		if _, err := tx.ExecContext(ctx, sqliteInsertCellTmpl,
			c.Session, c.Time.UnixMilli(), c.Tech.String(), c.NetworkType, c.Operator, c.MCC, c.MNC, c.OperatorName,
			c.StrengthDBm, c.StrengthASU, c.Serving, c.LogicalCellID, c.CellID, c.ControllerID,
			c.Area, c.PSC, c.BaseID, c.NetworkID, c.SystemID,
			begin.Lat, begin.Lon, begin.Accuracy, end.Lat, end.Lon, end.Accuracy,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("storing cell observation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	glog.V(1).Infof("stored %d cell observations", len(batch))
	return nil
}

func (s *SQLite) StoreWifiObservations(ctx context.Context, batch []radio.WifiObservation, begin, end geo.Position) error {
	if err := s.init(); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, w := range batch {
		if _, err := tx.ExecContext(ctx, sqliteInsertWifiTmpl,
			w.Session, w.Time.UnixMilli(), w.BSSID, w.SSID, w.Capabilities, w.Frequency, w.Level, w.Status.String(),
			begin.Lat, begin.Lon, begin.Accuracy, end.Lat, end.Lon, end.Accuracy,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("storing wifi observation: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	glog.V(1).Infof("stored %d wifi observations", len(batch))
	return nil
}

func (s *SQLite) StoreSessionMeta(ctx context.Context, meta radio.SessionMeta) error {
	if err := s.init(); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, sqliteInsertSessionTmpl,
		meta.Session, meta.Manufacturer, meta.Model, meta.OSVersion, meta.ClientID, meta.ClientVersion)
	if err != nil {
		return fmt.Errorf("storing session metadata: %w", err)
	}
	return nil
}
