// Package memories implements the encrypted memory record operations:
// save with emotion auto-tagging, list, download, delete and query.
package memories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/cryptox"
	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/emotion"
	"github.com/zynoxlab/zynox-cloud/internal/logging"
	"github.com/zynoxlab/zynox-cloud/internal/server/models"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/repomanager"
)

// QueryResult is one decrypted record matched by Query.
type QueryResult struct {
	ID        string
	Key       string
	Tags      []string
	CreatedAt time.Time
	Text      string
}

// Service owns the memory record flows. Plaintext only exists inside a
// single call; rows are written and read as ciphertext tokens.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      *cryptox.Cipher
	logger      logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, cipher *cryptox.Cipher, logger logging.Logger) *Service {
	return &Service{
		db:          db,
		repomanager: rm,
		cipher:      cipher,
		logger:      logger.With("module", "memories"),
	}
}

// Save encrypts plaintext and inserts a new record. The emotion tag
// derived from the plaintext is unioned into the caller's tags; the
// final tag list is deduplicated preserving first-insertion order.
// Returns the stored record with its ciphertext blanked.
func (s *Service) Save(ctx context.Context, ownerID, key string, tags []string, plaintext string) (*models.Memory, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required: %w", common.ErrorValidation)
	}

	merged := dedupeTags(tags)
	if tag, ok := emotion.Classify(plaintext); ok {
		merged = appendUnique(merged, tag)
	}

	blob, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	now := time.Now().UTC()
	m := &models.Memory{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Key:       key,
		Tags:      merged,
		CreatedAt: now,
		UpdatedAt: now,
		EncBlob:   blob,
		Version:   1,
	}

	repo := s.repomanager.Memories(s.db)
	if err := repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create memory: %w", dbx.WrapConnErr(err))
	}

	s.logger.Info(ctx, "memory saved", "id", m.ID, "owner_id", ownerID, "tags", len(merged))

	saved := *m
	saved.EncBlob = ""
	return &saved, nil
}

// List returns record metadata for one owner, ordered by creation time.
// Ciphertext is never included.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Memory, error) {
	repo := s.repomanager.Memories(s.db)
	items, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", dbx.WrapConnErr(err))
	}
	return items, nil
}

// Download decrypts one record. An unknown id yields
// common.ErrorNotFound; a record that fails to decrypt yields
// cryptox.ErrDecryptionFailed, which callers treat as a server fault.
func (s *Service) Download(ctx context.Context, id string) (string, error) {
	repo := s.repomanager.Memories(s.db)
	m, err := repo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get memory: %w", dbx.WrapConnErr(err))
	}

	text, err := s.cipher.Decrypt(m.EncBlob)
	if err != nil {
		s.logger.Error(ctx, "memory decryption failed", "id", id, "error", err)
		return "", fmt.Errorf("decrypt memory %s: %w", id, err)
	}

	return text, nil
}

// Delete removes a record. Deleting an absent id succeeds and still
// reports the id.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	repo := s.repomanager.Memories(s.db)
	if err := repo.Delete(ctx, id); err != nil {
		return "", fmt.Errorf("delete memory: %w", dbx.WrapConnErr(err))
	}
	return id, nil
}

// Query scans all of an owner's records and returns the decrypted ones
// matching either filter: emotionTag present in the record's tags, or
// keyword a case-insensitive substring of the plaintext. Records that
// fail to decrypt are skipped; the skip count is returned alongside the
// results. With both filters empty the result is empty.
func (s *Service) Query(ctx context.Context, ownerID, emotionTag, keyword string) ([]*QueryResult, int, error) {
	if emotionTag == "" && keyword == "" {
		return []*QueryResult{}, 0, nil
	}

	repo := s.repomanager.Memories(s.db)
	rows, err := repo.SearchByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("search memories: %w", dbx.WrapConnErr(err))
	}

	loweredKeyword := strings.ToLower(keyword)
	results := []*QueryResult{}
	skipped := 0
	for _, m := range rows {
		text, err := s.cipher.Decrypt(m.EncBlob)
		if err != nil {
			s.logger.Debug(ctx, "skipping undecryptable record", "id", m.ID)
			skipped++
			continue
		}

		match := false
		if emotionTag != "" && containsTag(m.Tags, emotionTag) {
			match = true
		}
		if !match && keyword != "" && strings.Contains(strings.ToLower(text), loweredKeyword) {
			match = true
		}
		if !match {
			continue
		}

		results = append(results, &QueryResult{
			ID:        m.ID,
			Key:       m.Key,
			Tags:      m.Tags,
			CreatedAt: m.CreatedAt,
			Text:      text,
		})
	}

	if skipped > 0 {
		s.logger.Warn(ctx, "query skipped undecryptable records", "owner_id", ownerID, "skipped", skipped)
	}

	return results, skipped, nil
}

func dedupeTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		out = appendUnique(out, t)
	}
	return out
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
