package main

import (
	"database/sql"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/radio"
	"github.com/openbeacon/surveylog/store"
	"github.com/openbeacon/surveylog/tracker"

	// Blind import support for sqlite3 used by store/sqlite.go.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen   = flag.String("listen", ":8443", "")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "", "Storage mechanism to use (one of: csv, sqlite, mysql)")

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
)

const (
	cellsEndpoint   = "/surveylog/v1/cells"
	wifisEndpoint   = "/surveylog/v1/wifis"
	sessionEndpoint = "/surveylog/v1/session"
)

type surveyServer struct {
	store tracker.Store
}

func (s *surveyServer) collectCells(c *gin.Context) {
	var req store.CellBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := s.store.StoreCellObservations(c.Request.Context(), req.Cells, req.Begin, req.End); err != nil {
		glog.Warningf("unable to store cell batch: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(req.Cells)})
}

func (s *surveyServer) collectWifis(c *gin.Context) {
	var req store.WifiBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := s.store.StoreWifiObservations(c.Request.Context(), req.Wifis, req.Begin, req.End); err != nil {
		glog.Warningf("unable to store wifi batch: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(req.Wifis)})
}

func (s *surveyServer) collectSession(c *gin.Context) {
	var meta radio.SessionMeta
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if meta.Session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "session id missing"})
		return
	}
	if err := s.store.StoreSessionMeta(c.Request.Context(), meta); err != nil {
		glog.Warningf("unable to store session metadata: %s", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": 1})
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	// Storage setup
	var st tracker.Store
	switch strings.ToLower(*output) {
	case "csv":
		cellOut, err := os.Create(*cellCSV)
		if err != nil {
			glog.Exitf("unable to create CSV file %q: %s", *cellCSV, err)
		}
		defer cellOut.Close()
		wifiOut, err := os.Create(*wifiCSV)
		if err != nil {
			glog.Exitf("unable to create CSV file %q: %s", *wifiCSV, err)
		}
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
		cfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		st = &store.MySQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported storage method, pick one of: csv, sqlite, mysql", *output)
	}

	// Configure and run webserver.
	s := &surveyServer{store: st}
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.POST(cellsEndpoint, s.collectCells)
	router.POST(wifisEndpoint, s.collectWifis)
	router.POST(sessionEndpoint, s.collectSession)

	if *certFile != "" || *keyFile != "" {
		glog.Fatal(router.RunTLS(*listen, *certFile, *keyFile))
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		glog.Fatal(router.Run(*listen))
	}

	glog.Flush()
}
