package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/openbeacon/surveylog/blacklist"
	"github.com/openbeacon/surveylog/catalog"
	"github.com/openbeacon/surveylog/config"
	"github.com/openbeacon/surveylog/feed"
	"github.com/openbeacon/surveylog/radio"
	"github.com/openbeacon/surveylog/store"
	"github.com/openbeacon/surveylog/throttle"
	"github.com/openbeacon/surveylog/tracker"

	// Blind import support for sqlite3 used by store/sqlite.go.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	configFile = flag.String("config", "", "Path of the YAML config file; built-in defaults are used when empty.")
	sessionID  = flag.String("session", "", "Session identifier; a random UUID is generated when empty.")
	feedFile   = flag.String("feed", "", "Path of the JSON-lines survey feed to replay ('-' for stdin).")
	realtime   = flag.Bool("realtime", false, "Replay the feed spaced by its timestamps instead of as fast as possible.")
	output     = flag.String("output", "", "Storage mechanism to use (one of: csv, sqlite, mysql, remote)")

	// CSV
	cellCSV = flag.String("cellCSV", "cells.csv", "File path of the cell observation CSV to write.")
	wifiCSV = flag.String("wifiCSV", "wifis.csv", "File path of the wifi observation CSV to write.")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/surveylog", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "surveylog", "Name of the DB to use.")

	// Remote
	remoteServer = flag.String("remoteServer", "http://localhost:8443", "Receiver server to upload observation batches to.")
)

// replayScanner satisfies the tracker's scan trigger during replay. The feed
// already carries the scan results that followed each trigger, so the trigger
// itself has nothing to do.
type replayScanner struct{}

func (replayScanner) TriggerScan() {}

func openCSV(path string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		glog.Exitf("unable to create CSV file %q: %s", path, err)
	}
	return f
}

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			glog.Exitf("unable to load config %q: %s", *configFile, err)
		}
	}
	cfg.Print()

	// Storage setup
	var st tracker.Store
	switch strings.ToLower(*output) {
	case "csv":
		cellOut := openCSV(*cellCSV)
		defer cellOut.Close()
		wifiOut := openCSV(*wifiCSV)
		defer wifiOut.Close()
		st = &store.CSV{
			CellOut: cellOut,
			WifiOut: wifiOut,
		}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		st = &store.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		mycfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", mycfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		st = &store.MySQL{
			DB: db,
		}
	case "remote":
		st = &store.Remote{
			Server: *remoteServer,
			Client: &http.Client{Timeout: 30 * time.Second},
		}
	default:
		glog.Exitf("%q is not a supported storage method, pick one of: csv, sqlite, mysql, remote", *output)
	}

	// Tracker setup
	trk := tracker.New(tracker.Options{
		Store:   st,
		Scanner: replayScanner{},
		CellPolicy: throttle.Policy{
			MinDistanceM: cfg.Tracking.MinCellDistanceM,
			MinInterval:  cfg.Tracking.MinCellInterval(),
			AlwaysDue:    cfg.Tracking.SaveAlways,
		},
		WifiPolicy: throttle.Policy{
			MinDistanceM: cfg.Tracking.MinWifiDistanceM,
			AlwaysDue:    cfg.Tracking.SaveAlways,
		},
		MaxAccuracyM:      cfg.Tracking.MaxAccuracyM,
		LocationBlacklist: blacklist.LoadLocationList(cfg.Blacklist.ZoneFile),
		SSIDBlacklist:     blacklist.LoadIdentifierList(cfg.Blacklist.SSIDFile, cfg.Blacklist.SSIDCustomFile),
		BSSIDBlacklist:    blacklist.LoadIdentifierList(cfg.Blacklist.BSSIDFile, cfg.Blacklist.BSSIDCustomFile),
		Catalog:           catalog.Open(cfg.Catalog.Path),
		Meta: radio.SessionMeta{
			Manufacturer:  cfg.Device.Manufacturer,
			Model:         cfg.Device.Model,
			OSVersion:     cfg.Device.OSVersion,
			ClientID:      cfg.Device.ClientID,
			ClientVersion: cfg.Device.ClientVersion,
		},
	})

	// Log event summaries as the survey progresses.
	go func() {
		for ev := range trk.Events() {
			switch ev.Kind {
			case tracker.EventNewCell:
				glog.V(1).Infof("recorded serving cell %s %s/%s cid=%d", ev.Cell.Tech, ev.Cell.MCC, ev.Cell.MNC, ev.Cell.CellID)
			case tracker.EventWifiBatch:
				glog.V(1).Infof("recorded %d wifis (free seen: %v)", ev.WifiCount, ev.FreeSeen)
			case tracker.EventBlacklisted:
				glog.V(1).Infof("skipped by blacklist (%s): %s", ev.Reason, ev.Detail)
			case tracker.EventFreeWifi:
				glog.V(1).Infof("free wifi nearby: %s", ev.Detail)
			}
		}
	}()

	session := *sessionID
	if session == "" {
		session = uuid.NewString()
	}
	if err := trk.Start(ctx, session); err != nil {
		glog.Warningf("session metadata not stored: %s", err)
	}
	glog.Infof("tracking session %s", session)

	// Replay
	in := os.Stdin
	if *feedFile != "" && *feedFile != "-" {
		f, err := os.Open(*feedFile)
		if err != nil {
			glog.Exitf("unable to open feed %q: %s", *feedFile, err)
		}
		defer f.Close()
		in = f
	}
	replay := &feed.Feed{
		In:       in,
		Realtime: *realtime,
	}
	if err := replay.Run(ctx, trk); err != nil {
		glog.Fatal(err)
	}
	trk.Stop()

	glog.Flush()
}
