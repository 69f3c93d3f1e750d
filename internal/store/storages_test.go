package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorages_LogsStoredSessions(t *testing.T) {
	root := filepath.Join(t.TempDir(), "sessions")
	require.NoError(t, os.MkdirAll(filepath.Join(root, SessionDirPrefix+"abc"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unrelated"), 0o755))

	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf)}

	storages, err := NewStorages(context.Background(), config.Storage{Sessions: config.Sessions{Root: root}}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storages.Close() })

	var found map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["message"] == "stored sessions found" {
			found = entry
		}
	}

	require.NotNil(t, found, "startup log must list stored sessions")
	assert.EqualValues(t, 1, found["count"])
	assert.Equal(t, []any{"abc"}, found["session_ids"])
}

func TestNewStorages_UnreadableRoot(t *testing.T) {
	// A regular file where the root directory should be.
	root := filepath.Join(t.TempDir(), "sessions")
	require.NoError(t, os.WriteFile(root, nil, 0o600))

	_, err := NewStorages(context.Background(), config.Storage{Sessions: config.Sessions{Root: root}}, logger.Nop())
	require.Error(t, err)
}
