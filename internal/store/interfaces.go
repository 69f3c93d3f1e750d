package store

import (
	"context"

	"github.com/MKhiriev/go-session-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// SessionStore owns the on-disk layout of extracted sessions. Every session
// lives in its own `session-<id>` directory under a single root.
type SessionStore interface {
	// Create prepares the directory for id and returns its path. A non-empty
	// existing directory is an error unless replace is set, in which case
	// its contents are removed first.
	Create(id string, replace bool) (string, error)
	// Locate returns the path of an existing session directory.
	Locate(id string) (string, error)
	// Clear removes the session directory. Missing directories are not an error.
	Clear(id string) error
	// List returns the ids of all stored sessions.
	List() ([]string, error)
}

// RestoreHistoryRepository persists one record per restore attempt and
// keeps its state current as the client moves through its lifecycle.
type RestoreHistoryRepository interface {
	// Save inserts the record or, when its id is already known, updates
	// state, reason and updated_at.
	Save(ctx context.Context, record models.RestoreRecord) error
	// List returns the latest records of a slot, newest first. An empty
	// slot lists every slot.
	List(ctx context.Context, slot string, limit int) ([]models.RestoreRecord, error)
}

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
