package catalog

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openbeacon/surveylog/radio"
)

func TestKey(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"aa:bb:cc:dd:ee:ff", "AABBCCDDEEFF"},
		{"AA-BB-CC-DD-EE-FF", "AABBCCDDEEFF"},
		{"aabb.ccdd.eeff", "AABBCCDDEEFF"},
		{"AABBCCDDEEFF", "AABBCCDDEEFF"},
	} {
		if got := Key(tc.in); got != tc.want {
			t.Errorf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	// Idempotent.
	if Key(Key("aa:bb")) != Key("aa:bb") {
		t.Error("Key must be idempotent")
	}
}

func buildCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("creating catalog: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE wifi_zone (bssid TEXT PRIMARY KEY, source INTEGER, latitude REAL, longitude REAL)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	for _, row := range []struct {
		bssid  string
		source int
	}{
		{"AABBCCDDEEFF", 0},
		{"112233445566", 1},
	} {
		if _, err := db.Exec(`INSERT INTO wifi_zone (bssid, source) VALUES (?, ?)`, row.bssid, row.source); err != nil {
			t.Fatalf("inserting row: %v", err)
		}
	}
	return path
}

func TestClassify(t *testing.T) {
	c := Open(buildCatalog(t))
	defer c.Close()

	for _, tc := range []struct {
		bssid string
		want  radio.CatalogStatus
	}{
		{"aa:bb:cc:dd:ee:ff", radio.KnownShared},
		{"AA:BB:CC:DD:EE:FF", radio.KnownShared},
		{"11:22:33:44:55:66", radio.KnownLocal},
		{"de:ad:be:ef:00:01", radio.New},
	} {
		if got := c.Classify(tc.bssid); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.bssid, got, tc.want)
		}
	}
}

func TestClassifyMissingCatalogDegradesToNew(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "does-not-exist.db"))
	defer c.Close()

	for _, bssid := range []string{"aa:bb:cc:dd:ee:ff", "11:22:33:44:55:66"} {
		if got := c.Classify(bssid); got != radio.New {
			t.Errorf("Classify(%q) without catalog = %v, want New", bssid, got)
		}
	}
}

func TestClassifyEmptyPathDegradesToNew(t *testing.T) {
	c := Open("")
	defer c.Close()
	if got := c.Classify("aa:bb:cc:dd:ee:ff"); got != radio.New {
		t.Errorf("Classify without configured catalog = %v, want New", got)
	}
}
