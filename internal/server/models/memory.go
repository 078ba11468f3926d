// Package models defines server-side data models persisted in the database.
package models

import "time"

// Memory is one stored, encrypted text record scoped to an owner.
type Memory struct {
	// ID is a generated uuid string, immutable for the record's lifetime.
	ID string
	// OwnerID scopes all list/query operations. Fixed at creation.
	OwnerID string
	// Key is an optional caller-supplied label; defaults to "".
	Key string
	// Tags holds caller tags plus the auto-derived emotion tag,
	// deduplicated in first-insertion order.
	Tags []string
	// CreatedAt and UpdatedAt are stamped once at creation (UTC).
	CreatedAt time.Time
	UpdatedAt time.Time
	// EncBlob is the ciphertext token; opaque to the store.
	EncBlob string
	// Version is fixed at 1; no operation increments it.
	Version int
}
