// canonical.go: the identity-resolution side of the store. One row per
// resolved unique identifier, updated with running statistics.
package datastore

import (
	"time"

	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
	"gorm.io/gorm"
)

// UpsertCanonical folds one detection into the canonical device table.
// The read-modify-write runs in a single transaction per identifier so
// concurrent scan cycles never lose an update. Callers must have checked
// the detection's identity validity beforehand.
func (ds *DataStore) UpsertCanonical(det *detection.RawDetection, now time.Time) (ResolveResult, error) {
	uid := det.UniqueIdentifier()
	if uid == "" {
		return ResolveResult{}, errors.Newf("detection has no unique identifier").
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	nowMillis := now.UnixMilli()
	var result ResolveResult

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		var dev CanonicalDevice
		lookup := tx.Where("unique_identifier = ?", uid).Take(&dev)
		if lookup.Error != nil {
			if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
				return lookup.Error
			}
			dev = newCanonicalDevice(det, uid, nowMillis)
			if err := tx.Create(&dev).Error; err != nil {
				return err
			}
			result = ResolveResult{Created: true, LocationChanged: true, Device: dev}
			return nil
		}

		locationChanged := false
		if det.Location != nil {
			old := detection.Location{Latitude: dev.Latitude, Longitude: dev.Longitude}
			locationChanged = old.Moved(*det.Location)
		}

		// Incremental mean over all observations of this identity.
		dev.AvgSignalStrength = (dev.AvgSignalStrength*float64(dev.TotalObservations) +
			float64(det.SignalStrength)) / float64(dev.TotalObservations+1)
		dev.TotalObservations++
		dev.LastSeen = nowMillis
		if locationChanged {
			dev.LastLocationChange = nowMillis
		}
		if det.Name != "" && det.Name != dev.Name {
			dev.Name = det.Name
		}
		applyLatestObservation(&dev, det)

		if err := tx.Model(&CanonicalDevice{}).
			Where("id = ?", dev.ID).
			Select("*").Omit("id").
			Updates(&dev).Error; err != nil {
			return err
		}
		result = ResolveResult{LocationChanged: locationChanged, Device: dev}
		return nil
	})
	if err != nil {
		return ResolveResult{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("unique_identifier", uid).
			Build()
	}
	return result, nil
}

// newCanonicalDevice builds the first record for an identifier.
func newCanonicalDevice(det *detection.RawDetection, uid string, nowMillis int64) CanonicalDevice {
	dev := CanonicalDevice{
		UniqueIdentifier:   uid,
		Kind:               string(det.Kind),
		Name:               det.Name,
		FirstSeen:          nowMillis,
		LastSeen:           nowMillis,
		TotalObservations:  1,
		AvgSignalStrength:  float64(det.SignalStrength),
		LastLocationChange: nowMillis,
	}
	applyLatestObservation(&dev, det)
	return dev
}

// applyLatestObservation overwrites the latest-snapshot columns.
func applyLatestObservation(dev *CanonicalDevice, det *detection.RawDetection) {
	dev.SignalStrength = det.SignalStrength
	if det.Link != nil {
		dev.Address = detection.NormalizeAddress(det.Link.Address)
		dev.Frequency = det.Link.Frequency
		dev.Capabilities = det.Link.Capabilities
		dev.Vendor = det.Link.Vendor
	}
	if det.Cell != nil {
		dev.CellID = det.Cell.CellID
		dev.LAC = det.Cell.LAC
		dev.MCC = det.Cell.MCC
		dev.MNC = det.Cell.MNC
		dev.PSC = det.Cell.PSC
		dev.PCI = det.Cell.PCI
		dev.TAC = det.Cell.TAC
		dev.EARFCN = det.Cell.EARFCN
		dev.ARFCN = det.Cell.ARFCN
		dev.SignalQuality = det.Cell.SignalQuality
		dev.NetworkType = det.Cell.NetworkType
		dev.Registered = det.Cell.Registered
		dev.Neighbor = det.Cell.Neighbor
	}
	if det.Location != nil {
		dev.Latitude = det.Location.Latitude
		dev.Longitude = det.Location.Longitude
		dev.Altitude = det.Location.Altitude
		dev.LocationAccuracy = det.Location.Accuracy
	}
}

// GetCanonicalDevices returns all canonical devices, most recently seen
// first.
func (ds *DataStore) GetCanonicalDevices() ([]CanonicalDevice, error) {
	var devices []CanonicalDevice
	if err := ds.DB.Order("last_seen DESC").Find(&devices).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return devices, nil
}

// GetCanonicalDevice returns the record for one unique identifier.
func (ds *DataStore) GetCanonicalDevice(uniqueIdentifier string) (CanonicalDevice, error) {
	var dev CanonicalDevice
	err := ds.DB.Where("unique_identifier = ?", uniqueIdentifier).Take(&dev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CanonicalDevice{}, errors.Newf("no canonical device %s", uniqueIdentifier).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return CanonicalDevice{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return dev, nil
}

// ClearCanonicalDevices removes every canonical record. This is the only
// way canonical devices are ever deleted.
func (ds *DataStore) ClearCanonicalDevices() error {
	if err := ds.DB.Where("1 = 1").Delete(&CanonicalDevice{}).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}
