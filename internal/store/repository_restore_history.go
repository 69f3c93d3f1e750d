package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
)

const (
	restoreHistoryTable = "restore_history"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 200

	saveAttempts = 3
)

var restoreHistoryColumns = []string{"id", "slot", "session_id", "source", "state", "reason", "created_at", "updated_at"}

// saveBackoff is the pause before each retry of a retryable Save failure.
var saveBackoff = 100 * time.Millisecond

// restoreHistoryRepository is the SQL implementation of
// [RestoreHistoryRepository]. It works against both postgres and sqlite3;
// only the placeholder format differs.
type restoreHistoryRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewRestoreHistoryRepository constructs a [RestoreHistoryRepository] backed
// by the provided database connection and logger.
func NewRestoreHistoryRepository(db *DB, logger *logger.Logger) RestoreHistoryRepository {
	logger.Debug().Str("dialect", string(db.dialect)).Msg("creating restore history repository")
	return &restoreHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Save upserts the record by id. Retryable driver errors (lost connection,
// deadlock, sqlite lock contention) are retried a bounded number of times.
func (r *restoreHistoryRepository) Save(ctx context.Context, record models.RestoreRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	query, args, err := r.buildSaveQuery(record)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	for attempt := 1; ; attempt++ {
		_, err = r.db.ExecContext(ctx, query, args...)
		if err == nil {
			return nil
		}

		r.logger.Err(err).
			Str("func", "*restoreHistoryRepository.Save").
			Str("pg_code", postgresError(err)).
			Int("attempt", attempt).
			Msg("error saving restore record")

		if attempt == saveAttempts || r.db.classify(err) != Retryable {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrExecutingStatement, ctx.Err())
		case <-time.After(saveBackoff * time.Duration(attempt)):
		}
	}
}

func (r *restoreHistoryRepository) List(ctx context.Context, slot string, limit int) ([]models.RestoreRecord, error) {
	query, args, err := r.buildListQuery(slot, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*restoreHistoryRepository.List").Msg("error querying restore history")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.RestoreRecord, 0)
	for rows.Next() {
		var (
			rec           models.RestoreRecord
			source, state string
			reason        string
		)
		if err := rows.Scan(&rec.ID, &rec.Slot, &rec.SessionID, &source, &state, &reason, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		rec.Source = source
		rec.State = models.SessionState(state)
		rec.Reason = models.FailureReason(reason)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (r *restoreHistoryRepository) buildSaveQuery(record models.RestoreRecord) (string, []any, error) {
	return squirrel.Insert(restoreHistoryTable).
		Columns(restoreHistoryColumns...).
		Values(
			record.ID,
			record.Slot,
			record.SessionID,
			record.Source,
			string(record.State),
			string(record.Reason),
			record.CreatedAt,
			record.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET state = excluded.state, reason = excluded.reason, session_id = excluded.session_id, updated_at = excluded.updated_at").
		PlaceholderFormat(r.db.placeholder()).
		ToSql()
}

func (r *restoreHistoryRepository) buildListQuery(slot string, limit int) (string, []any, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	builder := squirrel.Select(restoreHistoryColumns...).
		From(restoreHistoryTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(r.db.placeholder())

	if slot != "" {
		builder = builder.Where(squirrel.Eq{"slot": slot})
	}

	return builder.ToSql()
}

// noopRestoreHistory is used when no database is configured.
type noopRestoreHistory struct{}

// NewNoopRestoreHistory returns a [RestoreHistoryRepository] that keeps
// nothing.
func NewNoopRestoreHistory() RestoreHistoryRepository {
	return noopRestoreHistory{}
}

func (noopRestoreHistory) Save(context.Context, models.RestoreRecord) error { return nil }

func (noopRestoreHistory) List(context.Context, string, int) ([]models.RestoreRecord, error) {
	return []models.RestoreRecord{}, nil
}
