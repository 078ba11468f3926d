// Package memories provides database repositories for encrypted memory
// records, with PostgreSQL and SQLite implementations.
package memories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zynoxlab/zynox-cloud/internal/server/models"
)

// Repository is the persistence contract for memory records.
type Repository interface {
	// Create inserts a new record.
	Create(ctx context.Context, m *models.Memory) error
	// GetByID returns one record including its ciphertext, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Memory, error)
	// ListByOwner returns record metadata for one owner (no ciphertext),
	// ordered by created_at.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error)
	// SearchByOwner returns full records for one owner, ciphertext
	// included, ordered by created_at.
	SearchByOwner(ctx context.Context, ownerID string) ([]*models.Memory, error)
	// Delete removes a record by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// encodeTags serializes a tag list to the JSON text column format.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// decodeTags parses the JSON text column back into a tag list. An empty
// column yields an empty list.
func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
