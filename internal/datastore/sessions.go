// sessions.go: lifecycle of the named raw-ledger partitions ("folders").
// Each session is its own table sharing the RawRecord schema.
package datastore

import (
	"regexp"
	"sort"
	"strings"

	"github.com/santiway/radiowatch/internal/conf"
	"github.com/santiway/radiowatch/internal/errors"
)

// sessionTablePrefix keeps session tables apart from the shared tables.
const sessionTablePrefix = "session_"

// Sentinel errors for session lifecycle operations.
var (
	ErrInvalidSessionName = errors.NewStd("invalid session name")
	ErrProtectedSession   = errors.NewStd("protected session cannot be deleted")
	ErrSessionNotFound    = errors.NewStd("session not found")
)

// Session names become table names, so they are restricted to a safe
// character set before any DDL runs.
var sessionNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// sessionTable validates a session name and returns its table name.
func sessionTable(name string) (string, error) {
	if !sessionNameRe.MatchString(name) {
		return "", errors.New(ErrInvalidSessionName).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("session", name).
			Build()
	}
	return sessionTablePrefix + strings.ToLower(name), nil
}

// CreateSession creates the schema for a named session. Creating an
// existing session is a no-op.
func (ds *DataStore) CreateSession(name string) error {
	table, err := sessionTable(name)
	if err != nil {
		return err
	}
	if err := ds.DB.Table(table).AutoMigrate(&RawRecord{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", name).
			Build()
	}
	return nil
}

// DeleteSession drops a session and all its rows. The protected default
// session is never dropped. Callers scanning into the deleted session are
// expected to redirect their output to the default session; recreating a
// dropped session requires an explicit CreateSession.
func (ds *DataStore) DeleteSession(name string) error {
	if strings.EqualFold(name, conf.DefaultSession) {
		return errors.New(ErrProtectedSession).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("session", name).
			Build()
	}
	table, err := sessionTable(name)
	if err != nil {
		return err
	}
	exists := ds.DB.Migrator().HasTable(table)
	if !exists {
		return errors.New(ErrSessionNotFound).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("session", name).
			Build()
	}
	if err := ds.DB.Migrator().DropTable(table); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session", name).
			Build()
	}
	return nil
}

// ListSessions returns the names of all sessions, sorted.
func (ds *DataStore) ListSessions() ([]string, error) {
	tables, err := ds.DB.Migrator().GetTables()
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	var sessions []string
	for _, table := range tables {
		if strings.HasPrefix(table, sessionTablePrefix) {
			sessions = append(sessions, strings.TrimPrefix(table, sessionTablePrefix))
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}

// SessionExists reports whether a session's table exists.
func (ds *DataStore) SessionExists(name string) (bool, error) {
	table, err := sessionTable(name)
	if err != nil {
		return false, err
	}
	return ds.DB.Migrator().HasTable(table), nil
}

// existingSessionTable resolves a session name to its table name and
// fails with ErrSessionNotFound when the table does not exist.
func (ds *DataStore) existingSessionTable(name string) (string, error) {
	table, err := sessionTable(name)
	if err != nil {
		return "", err
	}
	if !ds.DB.Migrator().HasTable(table) {
		return "", errors.New(ErrSessionNotFound).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("session", name).
			Build()
	}
	return table, nil
}
