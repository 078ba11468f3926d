// Package repomanager vends driver-specific repository implementations and
// owns database opening and schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/memories"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/shares"
)

// Supported database driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// RepositoryManager binds repositories to a DBTX and migrates the schema.
type RepositoryManager interface {
	// Memories returns a memories.Repository bound to the provided DBTX.
	Memories(db dbx.DBTX) memories.Repository
	// Shares returns a shares.Repository bound to the provided DBTX.
	Shares(db dbx.DBTX) shares.Repository
	// RunMigrations applies the embedded migrations for this driver.
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// New returns the RepositoryManager for the given driver name.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverPostgres:
		return &PostgresRepositoryManager{}, nil
	case DriverSQLite:
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// Open opens a *sql.DB for the given driver and DSN.
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		return openPostgres(dsn)
	case DriverSQLite:
		return openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
