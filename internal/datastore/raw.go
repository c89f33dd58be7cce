// raw.go: raw ledger operations, the per-session upsert and queries.
package datastore

import (
	"time"

	"github.com/santiway/radiowatch/internal/detection"
	"github.com/santiway/radiowatch/internal/errors"
	"gorm.io/gorm"
)

// Upsert stores a detection in the named session under the last-write-wins
// rule. Within one transaction it looks up the existing row for the
// detection's (kind, natural key); if none exists the row is inserted, if
// one exists it is overwritten only when the incoming timestamp is strictly
// newer. Equal or older timestamps are skipped, which makes the operation
// idempotent under re-delivery and commutative under reordering.
func (ds *DataStore) Upsert(session string, det *detection.RawDetection) (UpsertOutcome, error) {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return SkippedStale, err
	}

	rec := recordFromDetection(det)
	if rec.NaturalKey == "" {
		return SkippedStale, errors.Newf("detection has no natural key").
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("kind", rec.Kind).
			Build()
	}

	outcome := SkippedStale
	err = ds.DB.Transaction(func(tx *gorm.DB) error {
		var existing RawRecord
		lookup := tx.Table(table).
			Where("kind = ? AND natural_key = ?", rec.Kind, rec.NaturalKey).
			Take(&existing)
		if lookup.Error != nil {
			if !errors.Is(lookup.Error, gorm.ErrRecordNotFound) {
				return lookup.Error
			}
			if err := tx.Table(table).Create(&rec).Error; err != nil {
				return err
			}
			outcome = Inserted
			return nil
		}

		if rec.ObservedAt <= existing.ObservedAt {
			outcome = SkippedStale
			return nil
		}

		// Last write wins: overwrite every column, keep the row id.
		rec.ID = existing.ID
		if err := tx.Table(table).
			Where("id = ?", existing.ID).
			Select("*").Omit("id").
			Updates(&rec).Error; err != nil {
			return err
		}
		outcome = UpdatedNewer
		return nil
	})
	if err != nil {
		return SkippedStale, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Context("natural_key", rec.NaturalKey).
			Build()
	}
	return outcome, nil
}

// GetDetections returns raw rows of a session ordered by observation time,
// newest first. Limit <= 0 returns all rows.
func (ds *DataStore) GetDetections(session string, limit, offset int) ([]RawRecord, error) {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return nil, err
	}
	var rows []RawRecord
	query := ds.DB.Table(table).Order("observed_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Build()
	}
	return rows, nil
}

// CountDetections returns the number of raw rows in a session.
func (ds *DataStore) CountDetections(session string) (int64, error) {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := ds.DB.Table(table).Count(&count).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Build()
	}
	return count, nil
}

// SetTriageStatus updates the operator triage label on the raw row matching
// (kind, naturalKey) in the given session.
func (ds *DataStore) SetTriageStatus(session string, kind detection.Kind, naturalKey, status string) error {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return err
	}
	result := ds.DB.Table(table).
		Where("kind = ? AND natural_key = ?", string(kind), naturalKey).
		Update("triage_status", status)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("no detection with key %s/%s in session %s", kind, naturalKey, session).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// GetUnsentDetections returns rows whose upload marker is still unset,
// oldest first so batches drain in arrival order.
func (ds *DataStore) GetUnsentDetections(session string, limit int) ([]RawRecord, error) {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return nil, err
	}
	var rows []RawRecord
	query := ds.DB.Table(table).Where("uploaded = ?", false).Order("observed_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Build()
	}
	return rows, nil
}

// MarkUploaded flips the upload marker on the given rows.
func (ds *DataStore) MarkUploaded(session string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return err
	}
	if err := ds.DB.Table(table).
		Where("id IN ?", ids).
		Update("uploaded", true).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", session).
			Build()
	}
	return nil
}

// PurgeOlderThan deletes rows of a session observed before the cutoff and
// returns how many were removed.
func (ds *DataStore) PurgeOlderThan(session string, cutoff time.Time) (int64, error) {
	table, err := ds.existingSessionTable(session)
	if err != nil {
		return 0, err
	}
	result := ds.DB.Table(table).
		Where("observed_at < ?", cutoff.UnixMilli()).
		Delete(&RawRecord{})
	if result.Error != nil {
		return 0, errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryRetention).
			Context("session", session).
			Build()
	}
	return result.RowsAffected, nil
}
