// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/detection"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Interface abstracts the underlying database implementation and defines
// the operations of the raw ledger and the canonical device inventory.
type Interface interface {
	Open() error
	Close() error

	// session lifecycle
	CreateSession(name string) error
	DeleteSession(name string) error
	ListSessions() ([]string, error)
	SessionExists(name string) (bool, error)

	// raw ledger
	Upsert(session string, det *detection.RawDetection) (UpsertOutcome, error)
	GetDetections(session string, limit, offset int) ([]RawRecord, error)
	CountDetections(session string) (int64, error)
	SetTriageStatus(session string, kind detection.Kind, naturalKey, status string) error
	GetUnsentDetections(session string, limit int) ([]RawRecord, error)
	MarkUploaded(session string, ids []uint) error
	PurgeOlderThan(session string, cutoff time.Time) (int64, error)

	// canonical inventory
	UpsertCanonical(det *detection.RawDetection, now time.Time) (ResolveResult, error)
	GetCanonicalDevices() ([]CanonicalDevice, error)
	GetCanonicalDevice(uniqueIdentifier string) (CanonicalDevice, error)
	ClearCanonicalDevices() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore based on the provided configuration. It
// returns nil when no database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// createGormLogger returns the GORM logger used by both stores. Query
// logging stays off unless debug is enabled; slow queries and errors are
// always reported.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.Default.LogMode(level)
}

// migrate creates the shared tables and the protected default session.
func (ds *DataStore) migrate() error {
	if err := ds.DB.AutoMigrate(&CanonicalDevice{}); err != nil {
		return err
	}
	return ds.CreateSession(conf.DefaultSession)
}
