package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surveylog.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write surveylog.yaml: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `catalog:
  path: "/data/wifi_catalog.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracking.MinCellDistanceM != 35 {
		t.Errorf("MinCellDistanceM = %v, want default 35", cfg.Tracking.MinCellDistanceM)
	}
	if cfg.Tracking.MinCellInterval() != 2*time.Second {
		t.Errorf("MinCellInterval = %v, want default 2s", cfg.Tracking.MinCellInterval())
	}
	if cfg.Catalog.Path != "/data/wifi_catalog.db" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `tracking:
  min_cell_distance_m: 50
  min_cell_interval_millis: 5000
  max_accuracy_m: 40
  save_always: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracking.MinCellDistanceM != 50 {
		t.Errorf("MinCellDistanceM = %v, want 50", cfg.Tracking.MinCellDistanceM)
	}
	if cfg.Tracking.MinCellInterval() != 5*time.Second {
		t.Errorf("MinCellInterval = %v, want 5s", cfg.Tracking.MinCellInterval())
	}
	if !cfg.Tracking.SaveAlways {
		t.Error("SaveAlways not set")
	}
	if cfg.Tracking.MinWifiDistanceM != 35 {
		t.Errorf("MinWifiDistanceM = %v, want untouched default 35", cfg.Tracking.MinWifiDistanceM)
	}
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	for name, body := range map[string]string{
		"negative distance": "tracking:\n  min_cell_distance_m: -1\n",
		"zero accuracy":     "tracking:\n  max_accuracy_m: 0\n",
	} {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
