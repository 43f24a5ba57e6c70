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
	mysqlCreateCellsTmpl = `CREATE TABLE IF NOT EXISTS cells (
		ID            BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT,
		Session       VARCHAR(64) NOT NULL,
		Time          BIGINT,
		Tech          VARCHAR(16),
		NetworkType   VARCHAR(32),
		Operator      VARCHAR(16),
		MCC           VARCHAR(8),
		MNC           VARCHAR(8),
		OperatorName  VARCHAR(64),
		StrengthDBm   INT,
		StrengthASU   INT,
		Serving       BOOLEAN,
		LogicalCellID BIGINT,
		CellID        BIGINT,
		ControllerID  BIGINT,
		Area          BIGINT,
		PSC           BIGINT,
		BaseID        VARCHAR(16),
		NetworkID     VARCHAR(16),
		SystemID      VARCHAR(16),
		BeginLat      DOUBLE,
		BeginLon      DOUBLE,
		BeginAccuracy DOUBLE,
		EndLat        DOUBLE,
		EndLon        DOUBLE,
		EndAccuracy   DOUBLE
	);`
	mysqlCreateWifisTmpl = `CREATE TABLE IF NOT EXISTS wifis (
		ID            BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT,
		Session       VARCHAR(64) NOT NULL,
		Time          BIGINT,
		BSSID         VARCHAR(20) NOT NULL,
		SSID          VARCHAR(64),
		Capabilities  VARCHAR(128),
		Frequency     INT,
		Level         INT,
		Status        VARCHAR(16),
		BeginLat      DOUBLE,
		BeginLon      DOUBLE,
		BeginAccuracy DOUBLE,
		EndLat        DOUBLE,
		EndLon        DOUBLE,
		EndAccuracy   DOUBLE
	);`
	mysqlCreateSessionsTmpl = `CREATE TABLE IF NOT EXISTS session_meta (
		Session       VARCHAR(64) NOT NULL PRIMARY KEY,
		Manufacturer  VARCHAR(64),
		Model         VARCHAR(64),
		OSVersion     VARCHAR(32),
		ClientID      VARCHAR(64),
		ClientVersion VARCHAR(32)
	);`

	mysqlInsertSessionTmpl = `REPLACE INTO session_meta (
		Session, Manufacturer, Model, OSVersion, ClientID, ClientVersion
	) VALUES (?, ?, ?, ?, ?, ?);`
)

// MySQL persists observation batches into a MySQL database, one transaction
// per batch. The insert statements are shared with the sqlite exporter; only
// the table DDL differs.
type MySQL struct {
	DB *sql.DB

	initOnce sync.Once
	initErr  error
}

func (s *MySQL) init() error {
	s.initOnce.Do(func() {
		for _, stmt := range []string{mysqlCreateCellsTmpl, mysqlCreateWifisTmpl, mysqlCreateSessionsTmpl} {
			if _, err := s.DB.Exec(stmt); err != nil {
				s.initErr = fmt.Errorf("unable to create table: %w", err)
				return
			}
		}
	})
	return s.initErr
}

func (s *MySQL) StoreCellObservations(ctx context.Context, batch []radio.CellObservation, begin, end geo.Position) error {
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

func (s *MySQL) StoreWifiObservations(ctx context.Context, batch []radio.WifiObservation, begin, end geo.Position) error {
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

func (s *MySQL) StoreSessionMeta(ctx context.Context, meta radio.SessionMeta) error {
	if err := s.init(); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, mysqlInsertSessionTmpl,
		meta.Session, meta.Manufacturer, meta.Model, meta.OSVersion, meta.ClientID, meta.ClientVersion)
	if err != nil {
		return fmt.Errorf("storing session metadata: %w", err)
	}
	return nil
}
