// Package shares provides database repositories for shared-document
// metadata, with PostgreSQL and SQLite implementations. Document bodies
// live in object storage, not here.
package shares

import (
	"context"

	"github.com/zynoxlab/zynox-cloud/internal/server/models"
)

// Repository is the persistence contract for share metadata.
type Repository interface {
	// Create inserts a new share row.
	Create(ctx context.Context, s *models.Share) error
	// GetByID returns one share or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Share, error)
	// ListByOwner returns all shares for one owner, ordered by created_at.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Share, error)
	// Delete removes a share row by id. Absent id is not an error.
	Delete(ctx context.Context, id string) error
}
