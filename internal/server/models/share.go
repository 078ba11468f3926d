package models

import "time"

// Share describes a PDF document stored in object storage on behalf of an
// owner. Only metadata lives in the database; the document body is keyed
// by StorageKey in the object store.
type Share struct {
	ID          string
	OwnerID     string
	FileName    string
	ContentType string
	SizeBytes   int64
	// StorageKey is the object-storage key (path) of the document.
	StorageKey string
	CreatedAt  time.Time
}
