// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/entity"
)

// Interface abstracts the underlying database implementation and defines
// the operations the audit components depend on.
type Interface interface {
	Open() error
	Close() error

	// employment records
	UpsertRecords(records []EmploymentRecord) (UpsertResult, error)
	AllRecords() ([]EmploymentRecord, error)
	RecordsByTaxID(taxID string) ([]EmploymentRecord, error)
	CountDistinctTaxIDsByEntity() (map[string]int, error)

	// dispositions
	SaveDisposition(d *Disposition) (int64, error)
	GetDisposition(taxID, entityKey string) (*Disposition, error)
	DispositionsByTaxID(taxID string) ([]Disposition, error)
	AllDispositions() ([]Disposition, error)

	// entity registry (the catalog's Source is implemented on top of this)
	ListEntities() ([]entity.Entity, error)
	SaveEntity(rec *EntityRecord) error
	DeactivateEntity(key string) error

	// reviewer accounts
	GetUser(username string) (*User, error)
	SaveUser(u *User) error
}

// UpsertResult summarizes one batch of record upserts. Rejected counts
// records skipped for missing identity fields, Failed counts individual
// store write failures; neither aborts the batch.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a datastore for the configured backend.
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

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&EntityRecord{}, &EmploymentRecord{}, &Disposition{}, &User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
