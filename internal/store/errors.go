package store

import "errors"

// Sentinel errors returned by the session directory store. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidSessionID is returned when a session id contains anything
	// other than letters, digits, '-' and '_'.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrSessionExists is returned by Create when the directory already holds
	// files and replacing it was not requested.
	ErrSessionExists = errors.New("session directory already exists")

	// ErrSessionNotFound is returned by Locate when no directory exists for
	// the id.
	ErrSessionNotFound = errors.New("session directory not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan restore history rows")

	// ErrUnsupportedDSN is returned when the DSN selects no known driver.
	ErrUnsupportedDSN = errors.New("unsupported database dsn")
)
