// Package catalog looks up observed identifiers in the downloaded reference
// dataset to tell previously-known access points from new discoveries.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/radio"
)

const lookupQuery = `SELECT source FROM wifi_zone WHERE bssid = ?`

// Source flag values in the catalog's source column.
const (
	sourceShared = 0
	sourceLocal  = 1
)

// Catalog is a read-only handle on the reference dataset. Safe for concurrent
// readers. A Catalog without an underlying database classifies everything as
// New; a missing or corrupt catalog file is a degraded state, not an error.
type Catalog struct {
	db *sql.DB

	// warnOnce keeps a broken catalog from flooding the log on every query.
	warnOnce sync.Once
}

// Open opens the catalog database at path. Open never fails: when the file is
// missing or unreadable the returned Catalog degrades to classifying
// everything as New.
func Open(path string) *Catalog {
	c := &Catalog{}
	if path == "" {
		glog.Warningf("no reference catalog configured, all observations will classify as new")
		return c
	}
	if _, err := os.Stat(path); err != nil {
		glog.Warningf("reference catalog %q not available: %v", path, err)
		return c
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		glog.Warningf("unable to open reference catalog %q: %v", path, err)
		return c
	}
	c.db = db
	glog.Infof("opened reference catalog %q", path)
	return c
}

// Close releases the catalog database handle.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Classify looks up an identifier and reports whether it is new, part of the
// shared dataset, or a local observation. Lookup problems degrade to New.
func (c *Catalog) Classify(identifier string) radio.CatalogStatus {
	if c.db == nil {
		return radio.New
	}

	var source int
	err := c.db.QueryRow(lookupQuery, Key(identifier)).Scan(&source)
	switch {
	case err == sql.ErrNoRows:
		return radio.New
	case err != nil:
		c.warnOnce.Do(func() {
			glog.Warningf("reference catalog lookup failed, classifying as new: %v", err)
		})
		return radio.New
	}

	if source == sourceLocal {
		return radio.KnownLocal
	}
	return radio.KnownShared
}

// Key maps an identifier to the form used when the catalog was built:
// upper case with separators stripped. Every write and lookup must go
// through this one function or lookups silently miss.
func Key(identifier string) string {
	identifier = strings.ToUpper(identifier)
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.':
			return -1
		}
		return r
	}, identifier)
}
