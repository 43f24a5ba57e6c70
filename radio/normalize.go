package radio

import (
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/geo"
)

// utranSplitThreshold: cell ids above this carry an RNC in the upper bits.
// Ids within (0xFFFF, 0xFFFFFF] are left whole; the split only applies above.
const utranSplitThreshold = 0xFFFFFF

// legacyCellIDMax is the largest id the 16 bit legacy identity field can hold.
const legacyCellIDMax = 0xFFFF

// Normalize turns a raw technology-variant descriptor into a canonical
// observation. It returns nil for descriptors that fail their technology's
// validity rule or lack a usable operator code; absence is routine hardware
// noise, not an error. position must already have passed validation.
func Normalize(raw RawCell, position geo.Position, session, operator, operatorName, networkType string) *CellObservation {
	if !validIdentity(raw) {
		glog.V(1).Infof("skipping %s descriptor with invalid identity", raw.Tech)
		return nil
	}

	obs := &CellObservation{
		Session:      session,
		Time:         position.Time,
		Tech:         raw.Tech,
		NetworkType:  networkType,
		OperatorName: operatorName,
		Serving:      raw.Serving,
		StrengthDBm:  clampDBm(raw.StrengthDBm),
		StrengthASU:  raw.StrengthASU,
		ControllerID: UnknownMember,
		Area:         UnknownMember,
		PSC:          UnknownMember,
		Begin:        position,
		End:          position,
	}

	// MCC/MNC can only be split when the operator code has at least 4
	// digits. GSM family descriptors without it are dropped; CDMA operator
	// reporting is known-unreliable, so those degrade to empty codes.
	if len(operator) > 3 {
		obs.Operator = operator
		obs.MCC = operator[:3]
		obs.MNC = operator[3:]
	} else if raw.Tech == TechCDMA {
		glog.V(1).Infof("no usable operator code %q on cdma cell, storing empty codes", operator)
	} else {
		glog.V(1).Infof("no usable operator code %q, skipping %s cell", operator, raw.Tech)
		return nil
	}

	switch raw.Tech {
	case TechGSM, TechWCDMA:
		obs.LogicalCellID = raw.CellID
		obs.ControllerID, obs.CellID = SplitCellID(raw.CellID)
		obs.Area = raw.Area
		obs.PSC = raw.PSC
	case TechLTE:
		obs.LogicalCellID = raw.CellID
		obs.CellID = raw.CellID
		obs.Area = raw.Area
		obs.PSC = raw.PSC
	case TechCDMA:
		obs.BaseID = strconv.FormatInt(raw.BaseID, 10)
		obs.NetworkID = strconv.FormatInt(raw.NetworkID, 10)
		obs.SystemID = strconv.FormatInt(raw.SystemID, 10)
	}

	return obs
}

// SplitCellID separates a UTRAN-style long cell id into its RNC part and the
// actual 16 bit cell id. Ids at or below the split threshold are returned
// whole with UnknownMember as the controller.
func SplitCellID(cid int64) (controller, actual int64) {
	if cid > utranSplitThreshold {
		return cid >> 16, cid & legacyCellIDMax
	}
	return UnknownMember, cid
}

func validIdentity(raw RawCell) bool {
	switch raw.Tech {
	case TechGSM:
		if !(raw.CellID > 0 && raw.CellID != UnknownCellID) {
			return false
		}
	case TechWCDMA:
		if !(raw.CellID >= 0 && raw.CellID < UnknownCellID) {
			return false
		}
	case TechLTE:
		if !(raw.CellID >= 0 && raw.CellID < UnknownCellID) {
			return false
		}
	case TechCDMA:
		// All three ids must be reported at once to name a base station.
		return raw.BaseID != CDMAUnknownID && raw.NetworkID != CDMAUnknownID && raw.SystemID != CDMAUnknownID
	default:
		return false
	}

	// Some modems report dummy neighbor entries; a neighbor also needs a
	// plausible legacy-range area code alongside the cell id.
	if !raw.Serving && raw.Tech != TechLTE {
		if raw.CellID >= legacyCellIDMax {
			return false
		}
		if raw.Area == UnknownMember || raw.Area >= legacyCellIDMax {
			return false
		}
	}
	return true
}

func clampDBm(dbm int) int {
	if dbm > MaxPlausibleDBm {
		return ImplausibleDBm
	}
	return dbm
}

// NormalizeWifi builds a wifi observation from one raw scan entry. The BSSID
// is canonicalized here so every later comparison sees one spelling.
func NormalizeWifi(raw RawWifi, status CatalogStatus, begin, end geo.Position, session string, at time.Time) WifiObservation {
	return WifiObservation{
		Session:      session,
		Time:         at,
		BSSID:        CanonicalBSSID(raw.BSSID),
		SSID:         raw.SSID,
		Capabilities: raw.Capabilities,
		Frequency:    raw.Frequency,
		Level:        raw.Level,
		Status:       status,
		Begin:        begin,
		End:          end,
	}
}
