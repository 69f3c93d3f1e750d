package service

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/models"
)

const testSlot = "default"

// fakeLifecycle is a LifecycleManager with a fixed state.
type fakeLifecycle struct {
	mu       sync.Mutex
	state    models.SessionState
	conn     adapter.Connector
	startErr error
	started  []models.ExtractedSession
	stopped  []string
}

func (f *fakeLifecycle) Start(_ context.Context, _ string, session models.ExtractedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, session)
	return f.startErr
}

func (f *fakeLifecycle) Status(slot string) models.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state
	if state == "" {
		state = models.StateIdle
	}
	return models.SessionStatus{Slot: slot, State: state}
}

func (f *fakeLifecycle) ReadyConnector(slot string) (adapter.Connector, error) {
	st := f.Status(slot)
	if st.State != models.StateReady {
		return nil, &PreconditionError{Slot: slot, State: st.State}
	}
	return f.conn, nil
}

func (f *fakeLifecycle) Stop(_ context.Context, slot string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, slot)
	return nil
}

func (f *fakeLifecycle) Shutdown(context.Context) error { return nil }

func (f *fakeLifecycle) starts() []models.ExtractedSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ExtractedSession(nil), f.started...)
}
