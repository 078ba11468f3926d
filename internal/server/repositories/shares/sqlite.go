package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/server/models"
)

// SQLiteRepository implements share storage for the SQLite driver.
type SQLiteRepository struct {
	db dbx.DBTX
}

// sqliteTimeLayout keeps a fixed-width fraction so that lexicographic
// ordering of the text column matches chronological ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, s *models.Share) error {
	query := `
		INSERT INTO shares (id, owner_id, file_name, content_type, size_bytes, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.FileName, s.ContentType, s.SizeBytes, s.StorageKey,
		s.CreatedAt.UTC().Format(sqliteTimeLayout)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Share, error) {
	query := `
		SELECT id, owner_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM shares WHERE id = ?
	`
	var item models.Share
	var created string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.FileName, &item.ContentType,
		&item.SizeBytes, &item.StorageKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if item.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", created, err)
	}
	return &item, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Share, error) {
	query := `
		SELECT id, owner_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM shares WHERE owner_id = ?
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		var item models.Share
		var created string
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FileName, &item.ContentType,
			&item.SizeBytes, &item.StorageKey, &created); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", created, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id = ?`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
