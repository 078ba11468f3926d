package memories

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

// SQLiteRepository implements memory storage for the SQLite driver.
// Timestamps are stored as RFC3339 text, the way the original prototype
// database laid them out.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// sqliteTimeLayout keeps a fixed-width fraction so that lexicographic
// ordering of the text column matches chronological ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, m *models.Memory) error {
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO memories (id, owner_id, key, tags, created_at, updated_at, enc_blob, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Key, tags, sqliteTime(m.CreatedAt), sqliteTime(m.UpdatedAt), m.EncBlob, m.Version); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	query := `
		SELECT id, owner_id, key, tags, created_at, updated_at, enc_blob, version
		FROM memories WHERE id = ?
	`
	var item models.Memory
	var tags, created, updated string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Key, &tags,
		&created, &updated, &item.EncBlob, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if item.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	query := `
		SELECT id, key, tags, created_at, updated_at, version
		FROM memories WHERE owner_id = ?
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select memories: %w", err)
	}
	defer rows.Close()

	var result []*models.Memory
	for rows.Next() {
		var item models.Memory
		var tags, created, updated string
		if err := rows.Scan(&item.ID, &item.Key, &tags, &created, &updated, &item.Version); err != nil {
			return nil, err
		}
		if item.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
			return nil, err
		}
		item.OwnerID = ownerID
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SearchByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	query := `
		SELECT id, key, tags, created_at, updated_at, enc_blob, version
		FROM memories WHERE owner_id = ?
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select memories: %w", err)
	}
	defer rows.Close()

	var result []*models.Memory
	for rows.Next() {
		var item models.Memory
		var tags, created, updated string
		if err := rows.Scan(&item.ID, &item.Key, &tags, &created, &updated, &item.EncBlob, &item.Version); err != nil {
			return nil, err
		}
		if item.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		if item.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, err
		}
		if item.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
			return nil, err
		}
		item.OwnerID = ownerID
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
