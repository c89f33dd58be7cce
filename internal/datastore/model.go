// model.go this code defines the data model for the raw ledger and the
// canonical device inventory
package datastore

import (
	"time"

	"github.com/santiway/radiowatch/internal/detection"
)

// RawRecord is one row of a session's raw ledger. All sensor types share
// this wide schema; columns irrelevant for a type stay at their zero value.
// The in-memory representation handed around the daemon is the tagged
// detection.RawDetection; this flat row is its on-disk encoding.
type RawRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Kind       string `gorm:"not null;index:idx_raw_kind_key"`
	NaturalKey string `gorm:"not null;index:idx_raw_kind_key"`
	Name       string

	SignalStrength int

	// link-layer columns
	Address      string `gorm:"index"`
	Frequency    int
	Capabilities string
	Vendor       string

	// cellular columns
	CellID        int64
	LAC           int
	MCC           int
	MNC           int
	PSC           int
	PCI           int
	TAC           int
	EARFCN        int
	ARFCN         int
	SignalQuality int
	NetworkType   string
	Registered    bool
	Neighbor      bool

	// location stamped by the scan cycle
	Latitude         float64
	Longitude        float64
	Altitude         float64
	LocationAccuracy float64

	ObservedAt   int64  `gorm:"not null;index"` // unix milliseconds
	TriageStatus string `gorm:"default:unset"`
	Uploaded     bool   `gorm:"default:false"`
}

// CanonicalDevice is the deduplicated, session-independent identity record
// with running statistics. One row per resolved unique identifier.
type CanonicalDevice struct {
	ID               uint   `gorm:"primaryKey"`
	UniqueIdentifier string `gorm:"uniqueIndex;not null"`
	Kind             string `gorm:"index"`
	Name             string

	FirstSeen          int64 // unix milliseconds
	LastSeen           int64 `gorm:"index"` // unix milliseconds
	TotalObservations  int64
	AvgSignalStrength  float64
	LastLocationChange int64 // unix milliseconds

	// latest observation snapshot
	SignalStrength   int
	Address          string
	Frequency        int
	Capabilities     string
	Vendor           string
	CellID           int64
	LAC              int
	MCC              int
	MNC              int
	PSC              int
	PCI              int
	TAC              int
	EARFCN           int
	ARFCN            int
	SignalQuality    int
	NetworkType      string
	Registered       bool
	Neighbor         bool
	Latitude         float64
	Longitude        float64
	Altitude         float64
	LocationAccuracy float64
}

// TableName keeps the canonical table apart from the session tables.
func (CanonicalDevice) TableName() string {
	return "canonical_devices"
}

// UpsertOutcome reports what a raw ledger upsert did with the detection.
type UpsertOutcome int

const (
	// Inserted means no row existed for the natural key and one was created.
	Inserted UpsertOutcome = iota
	// UpdatedNewer means an existing row was overwritten because the
	// incoming observation carried a strictly newer timestamp.
	UpdatedNewer
	// SkippedStale means an existing row was kept because the incoming
	// observation was not newer. The operation is a no-op.
	SkippedStale
)

func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case UpdatedNewer:
		return "updated-newer"
	case SkippedStale:
		return "skipped-stale"
	}
	return "unknown"
}

// ResolveResult reports what the canonical upsert did.
type ResolveResult struct {
	Created         bool // a previously-unseen identifier was added
	LocationChanged bool // the fix moved beyond the epsilon
	Device          CanonicalDevice
}

// recordFromDetection flattens a tagged detection into the wide row form.
func recordFromDetection(det *detection.RawDetection) RawRecord {
	rec := RawRecord{
		Kind:           string(det.Kind),
		NaturalKey:     det.NaturalKey(),
		Name:           det.Name,
		SignalStrength: det.SignalStrength,
		ObservedAt:     det.ObservedAt.UnixMilli(),
		TriageStatus:   det.TriageStatus,
		Uploaded:       det.Uploaded,
	}
	if rec.TriageStatus == "" {
		rec.TriageStatus = detection.TriageStatusUnset
	}
	if det.Link != nil {
		rec.Address = detection.NormalizeAddress(det.Link.Address)
		rec.Frequency = det.Link.Frequency
		rec.Capabilities = det.Link.Capabilities
		rec.Vendor = det.Link.Vendor
	}
	if det.Cell != nil {
		rec.CellID = det.Cell.CellID
		rec.LAC = det.Cell.LAC
		rec.MCC = det.Cell.MCC
		rec.MNC = det.Cell.MNC
		rec.PSC = det.Cell.PSC
		rec.PCI = det.Cell.PCI
		rec.TAC = det.Cell.TAC
		rec.EARFCN = det.Cell.EARFCN
		rec.ARFCN = det.Cell.ARFCN
		rec.SignalQuality = det.Cell.SignalQuality
		rec.NetworkType = det.Cell.NetworkType
		rec.Registered = det.Cell.Registered
		rec.Neighbor = det.Cell.Neighbor
	}
	if det.Location != nil {
		rec.Latitude = det.Location.Latitude
		rec.Longitude = det.Location.Longitude
		rec.Altitude = det.Location.Altitude
		rec.LocationAccuracy = det.Location.Accuracy
	}
	return rec
}

// ToDetection rebuilds the tagged form from a stored row.
func (r *RawRecord) ToDetection() detection.RawDetection {
	det := detection.RawDetection{
		Kind:           detection.Kind(r.Kind),
		Name:           r.Name,
		SignalStrength: r.SignalStrength,
		ObservedAt:     time.UnixMilli(r.ObservedAt),
		TriageStatus:   r.TriageStatus,
		Uploaded:       r.Uploaded,
	}
	switch det.Kind {
	case detection.KindWiFi, detection.KindBluetooth:
		det.Link = &detection.LinkMetadata{
			Address:      r.Address,
			Frequency:    r.Frequency,
			Capabilities: r.Capabilities,
			Vendor:       r.Vendor,
		}
	case detection.KindCell:
		det.Cell = &detection.CellMetadata{
			CellID:        r.CellID,
			LAC:           r.LAC,
			MCC:           r.MCC,
			MNC:           r.MNC,
			PSC:           r.PSC,
			PCI:           r.PCI,
			TAC:           r.TAC,
			EARFCN:        r.EARFCN,
			ARFCN:         r.ARFCN,
			SignalQuality: r.SignalQuality,
			NetworkType:   r.NetworkType,
			Registered:    r.Registered,
			Neighbor:      r.Neighbor,
		}
	}
	if r.Latitude != 0 || r.Longitude != 0 || r.Altitude != 0 || r.LocationAccuracy != 0 {
		det.Location = &detection.Location{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Altitude:  r.Altitude,
			Accuracy:  r.LocationAccuracy,
		}
	}
	return det
}
