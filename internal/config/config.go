// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-session-keeper server. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON or YAML file.
//
// Struct tags:
//   - envPrefix - prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       - direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds lifecycle settings: validation deadline, account polling
	// and the default slot.
	App App `envPrefix:"APP_"`

	// Storage holds the session directory layout and the restore history
	// database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds settings of the remote integrations: the messaging
	// bridge and the archive downloader.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds configuration for background workers.
	Workers Workers `envPrefix:"WORKERS_"`

	// FilePath is the optional path to a JSON or YAML configuration file.
	// The format is picked by extension (.yaml/.yml, anything else is JSON).
	// Populated via the CONFIG environment variable or the -c / -config flag.
	FilePath string `env:"CONFIG"`
}

// App holds settings of the client lifecycle state machine.
type App struct {
	// ValidationTimeout bounds the wait for the connector's readiness or
	// auth-failure signal after initialization.
	// Env: APP_VALIDATION_TIMEOUT
	ValidationTimeout time.Duration `env:"VALIDATION_TIMEOUT"`

	// InfoPollInterval is the pause between two reads of the account
	// descriptor while it is not yet populated.
	// Env: APP_INFO_POLL_INTERVAL
	InfoPollInterval time.Duration `env:"INFO_POLL_INTERVAL"`

	// InfoTimeout is the ceiling of the account descriptor polling.
	// Env: APP_INFO_TIMEOUT
	InfoTimeout time.Duration `env:"INFO_TIMEOUT"`

	// DefaultSlot is used when a command does not name a slot.
	// Env: APP_DEFAULT_SLOT
	DefaultSlot string `env:"DEFAULT_SLOT"`

	// Version is the version string reported by /api/version.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:10000").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for reading a single
	// inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// EventBufferSize is the number of events an SSE observer may lag
	// behind before new events are dropped.
	// Env: SERVER_EVENT_BUFFER_SIZE
	EventBufferSize int `env:"EVENT_BUFFER_SIZE"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// Sessions holds the on-disk layout of extracted sessions.
	Sessions Sessions `envPrefix:"SESSIONS_"`

	// DB holds the restore history database settings.
	DB DB `envPrefix:"DB_"`
}

// Sessions holds file-system settings for session directories.
type Sessions struct {
	// Root is the directory holding one `session-<id>` subdirectory per
	// session. The messaging bridge must read the same directory.
	// Env: STORAGE_SESSIONS_ROOT
	Root string `env:"ROOT"`

	// TempDir receives archives while they are downloaded or uploaded.
	// Defaults to the OS temp directory.
	// Env: STORAGE_SESSIONS_TEMP_DIR
	TempDir string `env:"TEMP_DIR"`

	// MaxArchiveSize caps the number of archive bytes accepted.
	// Env: STORAGE_SESSIONS_MAX_ARCHIVE_SIZE
	MaxArchiveSize int64 `env:"MAX_ARCHIVE_SIZE"`

	// KeepExisting forbids overwriting a non-empty session directory with a
	// new restore of the same id.
	// Env: STORAGE_SESSIONS_KEEP_EXISTING
	KeepExisting bool `env:"KEEP_EXISTING"`
}

// DB holds connection settings for the restore history database.
type DB struct {
	// DSN selects the driver: postgres:// and postgresql:// use pgx, any
	// other value is a sqlite3 file. Empty disables the history.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Adapter holds configuration for external integrations.
type Adapter struct {
	// BridgeURL is the base URL of the messaging bridge REST API.
	// Env: ADAPTER_BRIDGE_URL
	BridgeURL string `env:"BRIDGE_URL"`

	// BridgeAPIKey is sent as the x-api-key header to the bridge.
	// Env: ADAPTER_BRIDGE_API_KEY
	BridgeAPIKey string `env:"BRIDGE_API_KEY"`

	// RequestTimeout bounds a single bridge request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// PollInterval is the pause between two bridge status requests.
	// Env: ADAPTER_POLL_INTERVAL
	PollInterval time.Duration `env:"POLL_INTERVAL"`

	// DownloadTimeout bounds an archive download from a remote URL.
	// Env: ADAPTER_DOWNLOAD_TIMEOUT
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// InboxDir is watched for dropped session archives. Empty disables the
	// inbox watcher.
	// Env: WORKERS_INBOX_DIR
	InboxDir string `env:"INBOX_DIR"`

	// InboxDebounce is the quiet period after the last write to a dropped
	// archive before it is restored.
	// Env: WORKERS_INBOX_DEBOUNCE
	InboxDebounce time.Duration `env:"INBOX_DEBOUNCE"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. Config file (path resolved from sources 1 and 2)
//
// Defaults are applied to the fields left empty by every source.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withFile().
		build()
}
