// Package store provides versioned keyed-blob storage for the player record,
// with SQLite and Redis implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("entry not found")

// DefaultKeepVersions is how many versions per key survive pruning.
const DefaultKeepVersions = 10

// Entry is one stored version of a keyed blob.
type Entry struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Body       []byte    `json:"body"`
	Version    int       `json:"version"`
	Supersedes string    `json:"supersedes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PutParams holds parameters for storing a blob.
type PutParams struct {
	Key  string
	Body []byte
}

// GetParams holds parameters for retrieving a blob.
type GetParams struct {
	Key     string
	History bool
	Version int // 0 means latest
}

// RmParams holds parameters for deleting a key.
type RmParams struct {
	Key string
}

// Stats holds storage statistics.
type Stats struct {
	Backend       string     `json:"backend"`
	Location      string     `json:"location"`
	SizeBytes     int64      `json:"size_bytes,omitempty"`
	TotalVersions int        `json:"total_versions"`
	Keys          []KeyStats `json:"keys"`
}

// KeyStats holds per-key counts.
type KeyStats struct {
	Key       string    `json:"key"`
	Versions  int       `json:"versions"`
	Latest    int       `json:"latest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the storage interface.
type Store interface {
	// Put stores a new version of the blob under Key and prunes old versions.
	Put(ctx context.Context, p PutParams) (*Entry, error)

	// Get retrieves the latest version, a specific version, or the full history
	// (newest first). Returns ErrNotFound when nothing matches.
	Get(ctx context.Context, p GetParams) ([]Entry, error)

	// Rm deletes every version of a key.
	Rm(ctx context.Context, p RmParams) error

	// Stats reports storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close closes the store.
	Close() error
}
