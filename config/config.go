package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete collector configuration.
type Config struct {
	Tracking  TrackingConfig  `yaml:"tracking"`
	Blacklist BlacklistConfig `yaml:"blacklist"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Device    DeviceConfig    `yaml:"device"`
}

// TrackingConfig contains the throttle thresholds applied to location fixes.
type TrackingConfig struct {
	// MinCellDistanceM and MinCellIntervalMillis must both be exceeded
	// before a new cell batch is recorded. Wifi scans are gated on
	// distance alone.
	MinCellDistanceM      float64 `yaml:"min_cell_distance_m"`
	MinCellIntervalMillis int     `yaml:"min_cell_interval_millis"`
	MinWifiDistanceM      float64 `yaml:"min_wifi_distance_m"`
	MaxAccuracyM          float64 `yaml:"max_accuracy_m"`

	// SaveAlways bypasses the throttle entirely. Demo mode, not for
	// production surveys.
	SaveAlways bool `yaml:"save_always"`
}

// MinCellInterval returns the cell throttle interval as a duration.
func (t TrackingConfig) MinCellInterval() time.Duration {
	return time.Duration(t.MinCellIntervalMillis) * time.Millisecond
}

// BlacklistConfig points at the skip-rule files. Missing files are not an
// error; a list that cannot be read simply blocks nothing.
type BlacklistConfig struct {
	ZoneFile        string `yaml:"zone_file"`
	SSIDFile        string `yaml:"ssid_file"`
	SSIDCustomFile  string `yaml:"ssid_custom_file"`
	BSSIDFile       string `yaml:"bssid_file"`
	BSSIDCustomFile string `yaml:"bssid_custom_file"`
}

// CatalogConfig contains the offline wifi catalog settings.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// DeviceConfig describes the surveying device, recorded once per session.
type DeviceConfig struct {
	Manufacturer  string `yaml:"manufacturer"`
	Model         string `yaml:"model"`
	OSVersion     string `yaml:"os_version"`
	ClientID      string `yaml:"client_id"`
	ClientVersion string `yaml:"client_version"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Tracking: TrackingConfig{
			MinCellDistanceM:      35,
			MinCellIntervalMillis: 2000,
			MinWifiDistanceM:      35,
			MaxAccuracyM:          25,
		},
	}
}

// Load loads configuration from a YAML file, filling unset keys from the
// defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tracking.MinCellDistanceM < 0 || c.Tracking.MinWifiDistanceM < 0 {
		return fmt.Errorf("tracking distances must not be negative")
	}
	if c.Tracking.MinCellIntervalMillis < 0 {
		return fmt.Errorf("tracking interval must not be negative")
	}
	if c.Tracking.MaxAccuracyM <= 0 {
		return fmt.Errorf("max_accuracy_m must be positive")
	}
	return nil
}

// Print displays the effective configuration.
func (c *Config) Print() {
	fmt.Printf("Cells: every %.0fm and %s (accuracy <= %.0fm)\n",
		c.Tracking.MinCellDistanceM, c.Tracking.MinCellInterval(), c.Tracking.MaxAccuracyM)
	fmt.Printf("Wifis: every %.0fm\n", c.Tracking.MinWifiDistanceM)
	if c.Tracking.SaveAlways {
		fmt.Printf("Throttle disabled (save_always)\n")
	}
	if c.Blacklist.ZoneFile != "" {
		fmt.Printf("Zone blacklist: %s\n", c.Blacklist.ZoneFile)
	}
	if c.Catalog.Path != "" {
		fmt.Printf("Wifi catalog: %s\n", c.Catalog.Path)
	}
}
