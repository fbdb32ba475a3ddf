// interfaces.go: this code defines the interface for the session index database.
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/thermalab/thermal-ar-go/internal/conf"
	"github.com/thermalab/thermal-ar-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the session index supports.
type Interface interface {
	Open() error
	Close() error
	SaveSession(session *Session) error
	GetSession(name string) (Session, error)
	ListSessions(limit int) ([]Session, error)
}

// Session is one finished recording session as indexed in the database. The
// artifacts themselves live on disk under Path.
type Session struct {
	ID              uint      `gorm:"primarykey" json:"-"`
	Name            string    `gorm:"uniqueIndex" json:"session_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	TotalFrames     int       `json:"total_frames"`
	DurationSeconds float64   `json:"duration_seconds"`
	Path            string    `json:"path"`
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance based on the output configuration. Returns a
// no-op store when no database output is enabled so callers never need a nil
// check.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{
			Settings: settings,
		}
	}
	return &NoopStore{}
}

// SaveSession inserts or updates a finished session record.
func (ds *DataStore) SaveSession(session *Session) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Save(session).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save-session").
			Context("session", session.Name).
			Build()
	}
	return nil
}

// GetSession retrieves a session record by its name.
func (ds *DataStore) GetSession(name string) (Session, error) {
	var session Session
	if err := ds.DB.Where("name = ?", name).First(&session).Error; err != nil {
		return Session{}, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get-session").
			Context("session", name).
			Build()
	}
	return session, nil
}

// ListSessions returns the most recent sessions, newest first. A limit of
// zero or less returns all of them.
func (ds *DataStore) ListSessions(limit int) ([]Session, error) {
	var sessions []Session
	query := ds.DB.Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list-sessions").
			Build()
	}
	return sessions, nil
}

// performAutoMigration runs the GORM auto-migration for the session schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Session{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %v", dbType, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}

	if debug {
		logger.Debug("database connection initialized", "db_type", dbType, "connection", connectionInfo)
	}
	return nil
}
