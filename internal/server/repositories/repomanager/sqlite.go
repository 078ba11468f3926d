package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/server/migrations"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/memories"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/shares"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
// SQLite is the default driver; it matches the original single-file
// deployment model.
type SQLiteRepositoryManager struct{}

// Memories returns a memories.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Memories(db dbx.DBTX) memories.Repository {
	return memories.NewSQLiteRepository(db)
}

// Shares returns a shares.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Shares(db dbx.DBTX) shares.Repository {
	return shares.NewSQLiteRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "sqlite"); err != nil {
		return err
	}
	return nil
}

// openSQLite opens the database with WAL journaling and a busy timeout.
// With the modernc.org/sqlite driver each pragma must be prefixed with
// `_pragma=`. A single connection is optimal under WAL.
func openSQLite(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn required")
	}
	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}
