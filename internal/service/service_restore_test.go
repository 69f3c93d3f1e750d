package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/mock"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type restoreFixture struct {
	service   RestoreService
	lifecycle *fakeLifecycle
	sessions  store.SessionStore
	fetcher   *mock.MockArchiveFetcher
	history   *mock.MockRestoreHistoryRepository
	events    *recorder
}

func newRestoreFixture(t *testing.T, state models.SessionState) restoreFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := config.Sessions{Root: filepath.Join(t.TempDir(), "sessions"), TempDir: t.TempDir()}
	sessions, err := store.NewSessionDirectory(cfg, logger.Nop())
	require.NoError(t, err)

	f := restoreFixture{
		lifecycle: &fakeLifecycle{state: state},
		sessions:  sessions,
		fetcher:   mock.NewMockArchiveFetcher(ctrl),
		history:   mock.NewMockRestoreHistoryRepository(ctrl),
		events:    &recorder{},
	}

	events := NewEventBroadcaster(logger.Nop())
	events.Attach(testSlot, f.events.observe)

	ingester := NewArchiveIngester(sessions, f.fetcher, cfg, logger.Nop())
	f.service = NewRestoreService(ingester, f.lifecycle, events, f.history, logger.Nop())
	return f
}

func TestRestoreService_Upload_StartsClient(t *testing.T) {
	f := newRestoreFixture(t, models.StateIdle)
	data := buildZip(t, zipEntry{name: "session-abc/Default/Preferences", body: "{}"})

	err := f.service.RestoreFromUpload(context.Background(), testSlot, "abc.zip", bytes.NewReader(data))
	require.NoError(t, err)

	starts := f.lifecycle.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, "abc", starts[0].ID)
	assert.Equal(t, models.ArchiveSource{Kind: models.ArchiveSourceUpload, Location: "abc.zip"}, starts[0].Source)
	assert.Contains(t, f.events.messages(models.SeveritySuccess), "Session abc extracted")
}

func TestRestoreService_NonZip_InvalidSessionAndNoDirectory(t *testing.T) {
	f := newRestoreFixture(t, models.StateIdle)

	err := f.service.RestoreFromUpload(context.Background(), testSlot, "notes.txt", strings.NewReader("hello"))

	require.ErrorIs(t, err, ErrArchiveInvalid)
	assert.Empty(t, f.lifecycle.starts())
	assert.Len(t, f.events.ofType(models.EventInvalidSession), 1)
	assert.Equal(t, []string{"The file is not a valid ZIP archive"}, f.events.messages(models.SeverityError))

	ids, err := f.sessions.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRestoreService_ExtractionError_SingleTerminalEvent(t *testing.T) {
	f := newRestoreFixture(t, models.StateIdle)
	data := buildZip(t, zipEntry{name: "session-abc/../../escape", body: "x"})

	err := f.service.RestoreFromUpload(context.Background(), testSlot, "abc.zip", bytes.NewReader(data))

	require.ErrorIs(t, err, ErrExtraction)
	assert.Len(t, f.events.messages(models.SeverityError), 1)
	assert.Empty(t, f.events.ofType(models.EventInvalidSession))
	assert.Empty(t, f.lifecycle.starts())
}

func TestRestoreService_ReadySlot_SkipsIngestion(t *testing.T) {
	f := newRestoreFixture(t, models.StateReady)

	err := f.service.RestoreFromUpload(context.Background(), testSlot, "abc.zip", strings.NewReader("not even read"))
	require.NoError(t, err)

	starts := f.lifecycle.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, models.ExtractedSession{}, starts[0], "a Ready slot only refreshes the session info")

	ids, err := f.sessions.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRestoreService_BusySlot(t *testing.T) {
	for _, state := range []models.SessionState{models.StateInitializing, models.StateAwaitingValidation} {
		t.Run(string(state), func(t *testing.T) {
			f := newRestoreFixture(t, state)

			err := f.service.RestoreFromURL(context.Background(), testSlot, "https://files.example.com/s.zip")

			require.ErrorIs(t, err, ErrSessionBusy)
			assert.Empty(t, f.lifecycle.starts())
			assert.Len(t, f.events.messages(models.SeverityError), 1)
		})
	}
}

func TestRestoreService_URL_FetchError(t *testing.T) {
	f := newRestoreFixture(t, models.StateFailed)

	f.fetcher.EXPECT().Fetch(gomock.Any(), "https://files.example.com/s.zip", gomock.Any()).
		Return(int64(0), errors.New("connection refused"))

	err := f.service.RestoreFromURL(context.Background(), testSlot, "https://files.example.com/s.zip")

	require.ErrorIs(t, err, ErrArchiveFetch)
	assert.Empty(t, f.lifecycle.starts())
	assert.Contains(t, f.events.messages(models.SeverityInfo), "Downloading session archive...")
}

func TestRestoreService_File(t *testing.T) {
	f := newRestoreFixture(t, models.StateDisconnected)
	path := filepath.Join(t.TempDir(), "drop.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, zipEntry{name: "a", body: "b"}), 0o644))

	require.NoError(t, f.service.RestoreFromFile(context.Background(), testSlot, path))

	starts := f.lifecycle.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, models.ArchiveSourceInbox, starts[0].Source.Kind)
}

func TestRestoreService_StartBusy_Reported(t *testing.T) {
	f := newRestoreFixture(t, models.StateIdle)
	f.lifecycle.startErr = ErrSessionBusy

	err := f.service.RestoreFromUpload(context.Background(), testSlot, "a.zip", bytes.NewReader(buildZip(t, zipEntry{name: "a", body: "b"})))

	require.ErrorIs(t, err, ErrSessionBusy)
	assert.Len(t, f.events.messages(models.SeverityError), 1)
}

func TestRestoreService_History(t *testing.T) {
	f := newRestoreFixture(t, models.StateIdle)
	want := []models.RestoreRecord{{ID: "r1", Slot: testSlot, State: models.StateReady}}

	f.history.EXPECT().List(gomock.Any(), testSlot, 5).Return(want, nil)

	got, err := f.service.History(context.Background(), testSlot, 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
