// Package radio defines the normalized observation records produced by the
// scan pipelines and the raw descriptor shapes the hardware collaborators
// deliver.
package radio

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/openbeacon/surveylog/geo"
)

// Technology discriminates the cell identity payload of an observation.
type Technology int

const (
	TechUnknown Technology = iota
	TechGSM
	TechWCDMA
	TechCDMA
	TechLTE
)

func (t Technology) String() string {
	switch t {
	case TechGSM:
		return "gsm"
	case TechWCDMA:
		return "wcdma"
	case TechCDMA:
		return "cdma"
	case TechLTE:
		return "lte"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the technology as its lowercase name.
func (t Technology) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the lowercase names emitted by MarshalJSON. Unknown
// names parse to TechUnknown rather than erroring; the normalizer rejects
// those records later with full context.
func (t *Technology) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseTechnology(s)
	return nil
}

// ParseTechnology maps a feed tag to a Technology. Unknown tags map to
// TechUnknown, which the normalizer rejects.
func ParseTechnology(s string) Technology {
	switch strings.ToLower(s) {
	case "gsm":
		return TechGSM
	case "wcdma", "umts":
		return TechWCDMA
	case "cdma":
		return TechCDMA
	case "lte":
		return TechLTE
	default:
		return TechUnknown
	}
}

const (
	// MaxPlausibleDBm is the strongest signal a handset can physically
	// report. Anything above it is a broken modem reading.
	MaxPlausibleDBm = -51

	// ImplausibleDBm replaces readings above MaxPlausibleDBm before an
	// observation is finalized. Consumers never see the raw value.
	ImplausibleDBm = -99

	// UnknownCellID is the platform sentinel for "identity not reported",
	// the maximum representable value of the identity field.
	UnknownCellID = int64(1<<31 - 1)

	// CDMAUnknownID is the sentinel CDMA ids default to when the modem
	// does not report them.
	CDMAUnknownID = -1

	// UnknownMember marks unreported LAC/TAC/PSC/PCI values.
	UnknownMember = -1
)

// RawCell is a technology-variant cell descriptor as pushed by the telephony
// collaborator. Exactly one variant's fields are meaningful, selected by Tech.
// Both the modern and the legacy telephony surfaces of the reference platform
// reduce to this shape, so there is a single normalization path.
type RawCell struct {
	Tech Technology `json:"tech"`

	// GSM / WCDMA / LTE identity. For LTE this is the cell identifier (CI).
	CellID int64 `json:"cid,omitempty"`
	// Area is the LAC (2G/3G) or TAC (4G).
	Area int64 `json:"area,omitempty"`
	// PSC is the primary scrambling code (3G) or physical cell id (4G).
	PSC int64 `json:"psc,omitempty"`

	// CDMA identity.
	BaseID    int64 `json:"base_id,omitempty"`
	NetworkID int64 `json:"network_id,omitempty"`
	SystemID  int64 `json:"system_id,omitempty"`

	StrengthDBm int  `json:"dbm,omitempty"`
	StrengthASU int  `json:"asu,omitempty"`
	Serving     bool `json:"serving"`
}

// RawWifi is one access point entry of a wireless scan result batch.
type RawWifi struct {
	BSSID        string `json:"bssid"`
	SSID         string `json:"ssid"`
	Capabilities string `json:"capabilities"`
	Frequency    int    `json:"frequency"`
	Level        int    `json:"level"`
}

// CatalogStatus classifies an identifier against the reference catalog.
type CatalogStatus int

const (
	// New means the identifier was not found, or no catalog is available.
	New CatalogStatus = iota
	// KnownShared means the identifier came with the community dataset.
	KnownShared
	// KnownLocal means the identifier was recorded by this device before.
	KnownLocal
)

func (s CatalogStatus) String() string {
	switch s {
	case KnownShared:
		return "known-shared"
	case KnownLocal:
		return "known-local"
	default:
		return "new"
	}
}

// MarshalJSON encodes the status as its String form.
func (s CatalogStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names emitted by MarshalJSON; anything else
// decodes as New.
func (s *CatalogStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "known-shared":
		*s = KnownShared
	case "known-local":
		*s = KnownLocal
	default:
		*s = New
	}
	return nil
}

// CellObservation is one normalized, immutable cell measurement. The identity
// fields populated depend on Tech; all other variants' fields stay at their
// sentinel defaults.
type CellObservation struct {
	Session string    `json:"session"`
	Time    time.Time `json:"time"`

	Tech        Technology `json:"tech"`
	NetworkType string     `json:"network_type,omitempty"`

	// Operator is the raw MCC+MNC string as reported; MCC and MNC are the
	// split halves. All three are empty when unavailable (CDMA only).
	Operator     string `json:"operator"`
	MCC          string `json:"mcc"`
	MNC          string `json:"mnc"`
	OperatorName string `json:"operator_name"`

	StrengthDBm int  `json:"dbm"`
	StrengthASU int  `json:"asu"`
	Serving     bool `json:"serving"`

	// LogicalCellID is the id as reported. CellID is the actual cell id
	// after the UTRAN split; ControllerID is the RNC part, UnknownMember
	// when the id needed no split.
	LogicalCellID int64 `json:"logical_cid,omitempty"`
	CellID        int64 `json:"cid,omitempty"`
	ControllerID  int64 `json:"rnc,omitempty"`
	Area          int64 `json:"area,omitempty"`
	PSC           int64 `json:"psc,omitempty"`

	// CDMA identity, stored as opaque strings, "-1" when unknown.
	BaseID    string `json:"base_id,omitempty"`
	NetworkID string `json:"network_id,omitempty"`
	SystemID  string `json:"system_id,omitempty"`

	Begin geo.Position `json:"begin"`
	End   geo.Position `json:"end"`
}

// WifiObservation is one normalized, immutable access point measurement.
type WifiObservation struct {
	Session string    `json:"session"`
	Time    time.Time `json:"time"`

	// BSSID is canonicalized via CanonicalBSSID before construction; two
	// spellings differing only by case are the same access point.
	BSSID        string        `json:"bssid"`
	SSID         string        `json:"ssid"`
	Capabilities string        `json:"capabilities"`
	Frequency    int           `json:"frequency"`
	Level        int           `json:"level"`
	Status       CatalogStatus `json:"status"`

	Begin geo.Position `json:"begin"`
	End   geo.Position `json:"end"`
}

// Free reports whether the access point advertises no encryption or
// authentication at all.
func (w WifiObservation) Free() bool {
	return w.Capabilities == "[ESS]"
}

// CanonicalBSSID maps a hardware-reported BSSID to its canonical spelling.
// Idempotent; every comparison, hash and blacklist check uses this form.
func CanonicalBSSID(bssid string) string {
	return strings.ToUpper(bssid)
}

// ASUToDBm converts a GSM arbitrary-strength-unit reading to dBm.
func ASUToDBm(asu int) int {
	return -113 + 2*asu
}

// SessionMeta is the one-time device and software identity record stored
// when tracking starts.
type SessionMeta struct {
	Session       string `json:"session"`
	Manufacturer  string `json:"manufacturer"`
	Model         string `json:"model"`
	OSVersion     string `json:"os_version"`
	ClientID      string `json:"client_id"`
	ClientVersion string `json:"client_version"`
}
