package http

import (
	"context"
	"io"
	"sync"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/MKhiriev/go-session-keeper/models"
)

const testSlot = "default"

type fakeLifecycle struct {
	mu      sync.Mutex
	status  map[string]models.SessionStatus
	stopErr error
	stopped []string
}

func (f *fakeLifecycle) Start(context.Context, string, models.ExtractedSession) error { return nil }

func (f *fakeLifecycle) Status(slot string) models.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.status[slot]; ok {
		return st
	}
	return models.SessionStatus{Slot: slot, State: models.StateIdle}
}

func (f *fakeLifecycle) ReadyConnector(slot string) (adapter.Connector, error) {
	return nil, &service.PreconditionError{Slot: slot, State: f.Status(slot).State}
}

func (f *fakeLifecycle) Stop(_ context.Context, slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, slot)
	return f.stopErr
}

func (f *fakeLifecycle) Shutdown(context.Context) error { return nil }

type fakeRestore struct {
	mu sync.Mutex

	uploadErr  error
	uploadName string
	uploadBody []byte

	urlDone chan string
	urlErr  error

	history      []models.RestoreRecord
	historyErr   error
	historyLimit int
}

func (f *fakeRestore) RestoreFromUpload(_ context.Context, _ string, name string, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadName = name
	f.uploadBody = body
	return f.uploadErr
}

func (f *fakeRestore) RestoreFromURL(_ context.Context, _ string, url string) error {
	if f.urlDone != nil {
		f.urlDone <- url
	}
	return f.urlErr
}

func (f *fakeRestore) RestoreFromFile(context.Context, string, string) error { return nil }

func (f *fakeRestore) History(_ context.Context, _ string, limit int) ([]models.RestoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyLimit = limit
	return f.history, f.historyErr
}

type fakeMessages struct {
	err  error
	got  models.SendMessageRequest
	slot string
}

func (f *fakeMessages) SendMessage(_ context.Context, slot string, req models.SendMessageRequest) error {
	f.slot = slot
	f.got = req
	return f.err
}

type fakeAppInfo struct {
	info models.VersionInfo
}

func (f fakeAppInfo) GetAppVersion(context.Context) models.VersionInfo { return f.info }

type handlerFixture struct {
	handler   *Handler
	lifecycle *fakeLifecycle
	restore   *fakeRestore
	messages  *fakeMessages
	events    service.EventBroadcaster
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		lifecycle: &fakeLifecycle{status: map[string]models.SessionStatus{}},
		restore:   &fakeRestore{},
		messages:  &fakeMessages{},
		events:    service.NewEventBroadcaster(logger.Nop()),
	}

	services := &service.Services{
		Events:    f.events,
		Lifecycle: f.lifecycle,
		Restore:   f.restore,
		Messages:  f.messages,
		AppInfo:   fakeAppInfo{info: models.VersionInfo{Version: "v1.2.3", Commit: "abc123", Date: "2026-01-01"}},
	}

	cfg := config.StructuredConfig{
		App:    config.App{DefaultSlot: testSlot},
		Server: config.Server{EventBufferSize: 8},
	}
	f.handler = NewHandler(services, cfg, logger.Nop())
	return f
}
