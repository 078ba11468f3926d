// Package shares implements the PDF file-sharing sidecar: documents are
// streamed to object storage while their metadata lives in the database.
package shares

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/zynoxlab/zynox-cloud/internal/common"
	"github.com/zynoxlab/zynox-cloud/internal/dbx"
	"github.com/zynoxlab/zynox-cloud/internal/logging"
	"github.com/zynoxlab/zynox-cloud/internal/server/models"
	"github.com/zynoxlab/zynox-cloud/internal/server/repositories/repomanager"
	"github.com/zynoxlab/zynox-cloud/internal/server/storage"
)

// pdfMagic is the required prefix of every uploaded document.
var pdfMagic = []byte("%PDF-")

const pdfContentType = "application/pdf"

// Service owns the document sharing flows.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	linkTTL     time.Duration
	logger      logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, store storage.ObjectStore, linkTTL time.Duration, logger logging.Logger) *Service {
	return &Service{
		db:          db,
		repomanager: rm,
		store:       store,
		linkTTL:     linkTTL,
		logger:      logger.With("module", "shares"),
	}
}

// newStorageKey builds the object key for a fresh upload, partitioned by
// upload date.
func newStorageKey(now time.Time) string {
	return fmt.Sprintf("shares/%d/%d/%d/%v", now.Year(), int(now.Month()), now.Day(), uuid.New())
}

// Upload streams a PDF document to object storage and records its
// metadata. Only PDF bodies are accepted: the stream must start with the
// %PDF- magic bytes, otherwise ErrorValidation is returned before
// anything is stored.
func (s *Service) Upload(ctx context.Context, ownerID, fileName string, body io.Reader, size int64) (*models.Share, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required: %w", common.ErrorValidation)
	}
	if fileName == "" {
		return nil, fmt.Errorf("file name is required: %w", common.ErrorValidation)
	}

	// Peek at the magic bytes without consuming the stream.
	br := bufio.NewReader(body)
	head, err := br.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, fmt.Errorf("only PDF documents are accepted: %w", common.ErrorValidation)
	}

	now := time.Now().UTC()
	share := &models.Share{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		FileName:    fileName,
		ContentType: pdfContentType,
		SizeBytes:   size,
		StorageKey:  newStorageKey(now),
		CreatedAt:   now,
	}

	if err := s.store.Put(ctx, share.StorageKey, br, size, pdfContentType); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	repo := s.repomanager.Shares(s.db)
	if err := repo.Create(ctx, share); err != nil {
		// the object is orphaned if this cleanup fails; log and move on
		if derr := s.store.Delete(ctx, share.StorageKey); derr != nil {
			s.logger.Error(ctx, "orphaned object after failed insert", "key", share.StorageKey, "error", derr)
		}
		return nil, fmt.Errorf("create share: %w", dbx.WrapConnErr(err))
	}

	s.logger.Info(ctx, "document uploaded", "id", share.ID, "owner_id", ownerID, "size", size)
	return share, nil
}

// Download returns the share metadata plus a streaming reader for the
// document body. The caller must close the reader.
func (s *Service) Download(ctx context.Context, id string) (*models.Share, io.ReadCloser, error) {
	repo := s.repomanager.Shares(s.db)
	share, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get share: %w", dbx.WrapConnErr(err))
	}

	body, size, err := s.store.Get(ctx, share.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch document: %w", err)
	}
	if size > 0 {
		share.SizeBytes = size
	}

	return share, body, nil
}

// Link returns a presigned download URL valid for the configured TTL.
func (s *Service) Link(ctx context.Context, id string) (string, error) {
	repo := s.repomanager.Shares(s.db)
	share, err := repo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get share: %w", dbx.WrapConnErr(err))
	}

	url, err := s.store.PresignGet(ctx, share.StorageKey, s.linkTTL)
	if err != nil {
		return "", fmt.Errorf("presign document: %w", err)
	}

	return url, nil
}

// List returns all shares for one owner, ordered by creation time.
func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Share, error) {
	repo := s.repomanager.Shares(s.db)
	items, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", dbx.WrapConnErr(err))
	}
	return items, nil
}

// Delete removes the metadata row inside a transaction, then removes the
// object best-effort. Deleting an absent id succeeds and reports the id.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	var storageKey string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Shares(tx)

		share, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		storageKey = share.StorageKey

		return repo.Delete(ctx, id)
	})
	if err != nil {
		return "", fmt.Errorf("delete share: %w", dbx.WrapConnErr(err))
	}

	if storageKey != "" {
		if err := s.store.Delete(ctx, storageKey); err != nil {
			s.logger.Warn(ctx, "object delete failed", "id", id, "key", storageKey, "error", err)
		}
	}

	return id, nil
}
