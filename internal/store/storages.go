package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
)

// Storages groups every persistence component of the server.
type Storages struct {
	Sessions SessionStore
	History  RestoreHistoryRepository

	db *DB
}

// NewStorages prepares the session directory and, when a DSN is configured,
// opens and migrates the restore history database.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	sessions, err := NewSessionDirectory(cfg.Sessions, log)
	if err != nil {
		return nil, err
	}

	stored, err := sessions.List()
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(stored)).Strs("session_ids", stored).Msg("stored sessions found")

	if cfg.DB.DSN == "" {
		log.Info().Msg("no database configured, restore history is disabled")
		return &Storages{Sessions: sessions, History: NewNoopRestoreHistory()}, nil
	}

	db, err := NewConnect(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting restore history database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return &Storages{
		Sessions: sessions,
		History:  NewRestoreHistoryRepository(db, log),
		db:       db,
	}, nil
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
