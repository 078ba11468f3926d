package memories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/server/models"
)

// PostgresRepository implements memory storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Memory) error {
	tags, err := encodeTags(m.Tags)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO memories (id, owner_id, key, tags, created_at, updated_at, enc_blob, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Key, tags, m.CreatedAt, m.UpdatedAt, m.EncBlob, m.Version); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Memory, error) {
	query := `
		SELECT id, owner_id, key, tags, created_at, updated_at, enc_blob, version
		FROM memories WHERE id = $1
	`
	var item models.Memory
	var tags string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Key, &tags,
		&item.CreatedAt, &item.UpdatedAt, &item.EncBlob, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if item.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	query := `
		SELECT id, key, tags, created_at, updated_at, version
		FROM memories WHERE owner_id = $1
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
		var tags string
		if err := rows.Scan(&item.ID, &item.Key, &tags,
			&item.CreatedAt, &item.UpdatedAt, &item.Version); err != nil {
			return nil, err
		}
		if item.Tags, err = decodeTags(tags); err != nil {
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

func (r *PostgresRepository) SearchByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	query := `
		SELECT id, key, tags, created_at, updated_at, enc_blob, version
		FROM memories WHERE owner_id = $1
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
		var tags string
		if err := rows.Scan(&item.ID, &item.Key, &tags,
			&item.CreatedAt, &item.UpdatedAt, &item.EncBlob, &item.Version); err != nil {
			return nil, err
		}
		if item.Tags, err = decodeTags(tags); err != nil {
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	// Deleting an absent row is fine; callers treat delete as idempotent.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
