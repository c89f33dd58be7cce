// Package detection defines the raw detection model shared by the scan
// schedulers, the raw ledger and the identity resolver.
package detection

import (
	"time"
)

// Kind identifies the sensor type that produced a detection.
type Kind string

const (
	KindWiFi      Kind = "wifi"
	KindBluetooth Kind = "bluetooth"
	KindCell      Kind = "cell"
)

// Kinds lists all supported sensor types in a stable order.
func Kinds() []Kind {
	return []Kind{KindWiFi, KindBluetooth, KindCell}
}

// Known reports whether k names a supported sensor type.
func (k Kind) Known() bool {
	switch k {
	case KindWiFi, KindBluetooth, KindCell:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// TriageStatusUnset is the default operator triage label on new detections.
const TriageStatusUnset = "unset"

// Location is a geographic fix supplied by the scan cycle, not the sensor.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Accuracy  float64 `json:"accuracy"`
}

// LocationEpsilonDegrees is the per-axis threshold below which two fixes
// are considered the same place.
const LocationEpsilonDegrees = 1e-4

// Moved reports whether other differs from l by more than the epsilon on
// either axis. Axes are compared independently.
func (l Location) Moved(other Location) bool {
	return abs(l.Latitude-other.Latitude) > LocationEpsilonDegrees ||
		abs(l.Longitude-other.Longitude) > LocationEpsilonDegrees
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// LinkMetadata carries the type-specific fields of link-layer-addressed
// detections (wireless APs and short-range peripherals).
type LinkMetadata struct {
	Address      string `json:"address"`      // link-layer address, canonical uppercase
	Frequency    int    `json:"frequency"`    // MHz, zero when unknown
	Capabilities string `json:"capabilities"` // raw capability flags string
	Vendor       string `json:"vendor"`       // vendor resolved from the address prefix
}

// CellMetadata carries the type-specific fields of cellular detections.
type CellMetadata struct {
	CellID        int64  `json:"cellId"`
	LAC           int    `json:"lac"` // location area code (GSM/UMTS)
	TAC           int    `json:"tac"` // tracking area code (LTE/NR)
	MCC           int    `json:"mcc"` // mobile country code
	MNC           int    `json:"mnc"` // mobile network code
	PSC           int    `json:"psc"` // primary scrambling code
	PCI           int    `json:"pci"` // physical cell id
	EARFCN        int    `json:"earfcn"`
	ARFCN         int    `json:"arfcn"`
	SignalQuality int    `json:"signalQuality"`
	NetworkType   string `json:"networkType"` // GSM, UMTS, LTE, 5G
	Registered    bool   `json:"registered"`
	Neighbor      bool   `json:"neighbor"`
}

// RawDetection is one accepted, timestamped observation of an emitter.
// Kind selects which metadata payload is set; the other stays nil.
type RawDetection struct {
	Kind           Kind          `json:"kind"`
	Name           string        `json:"name"` // SSID, peripheral name or operator name
	SignalStrength int           `json:"signalStrength"`
	Location       *Location     `json:"location,omitempty"`
	ObservedAt     time.Time     `json:"observedAt"`
	TriageStatus   string        `json:"triageStatus"`
	Uploaded       bool          `json:"uploaded"`
	Link           *LinkMetadata `json:"link,omitempty"`
	Cell           *CellMetadata `json:"cell,omitempty"`
}

// NewWiFi builds a wireless AP detection.
func NewWiFi(ssid, bssid string, signal int, observedAt time.Time) RawDetection {
	return RawDetection{
		Kind:           KindWiFi,
		Name:           ssid,
		SignalStrength: signal,
		ObservedAt:     observedAt,
		TriageStatus:   TriageStatusUnset,
		Link:           &LinkMetadata{Address: NormalizeAddress(bssid)},
	}
}

// NewBluetooth builds a short-range peripheral detection.
func NewBluetooth(name, address string, signal int, observedAt time.Time) RawDetection {
	return RawDetection{
		Kind:           KindBluetooth,
		Name:           name,
		SignalStrength: signal,
		ObservedAt:     observedAt,
		TriageStatus:   TriageStatusUnset,
		Link:           &LinkMetadata{Address: NormalizeAddress(address)},
	}
}

// NewCell builds a cell tower detection.
func NewCell(operator string, meta CellMetadata, signal int, observedAt time.Time) RawDetection {
	return RawDetection{
		Kind:           KindCell,
		Name:           operator,
		SignalStrength: signal,
		ObservedAt:     observedAt,
		TriageStatus:   TriageStatusUnset,
		Cell:           &meta,
	}
}
