package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/handler"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the shutdown steps in the order they happen.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

type fakeWaiter struct{ rec *recorder }

func (f fakeWaiter) Wait() { f.rec.add("handlers") }

type fakeSessions struct {
	rec *recorder
	err error
}

func (f fakeSessions) Shutdown(context.Context) error {
	f.rec.add("sessions")
	return f.err
}

type fakeWorkers struct {
	rec     *recorder
	started chan struct{}
}

func (f fakeWorkers) Run(ctx context.Context) error {
	close(f.started)
	<-ctx.Done()
	f.rec.add("workers")
	return nil
}

type fakeStorages struct{ rec *recorder }

func (f fakeStorages) Close() error {
	f.rec.add("storages")
	return nil
}

func newTestServer(rec *recorder, sessionsErr error) (*server, chan struct{}) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return &server{
		httpServer: newHTTPServer(handler, config.Server{HTTPAddress: "127.0.0.1:0", RequestTimeout: time.Second}, logger.Nop()),
		handlers:   fakeWaiter{rec: rec},
		sessions:   fakeSessions{rec: rec, err: sessionsErr},
		workers:    fakeWorkers{rec: rec, started: started},
		storages:   fakeStorages{rec: rec},
		logger:     logger.Nop(),
	}, started
}

func TestServer_RunShutsDownInOrder(t *testing.T) {
	rec := &recorder{}
	s, started := newTestServer(rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.run(ctx)
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("workers were not started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	assert.Equal(t, []string{"workers", "handlers", "sessions", "storages"}, rec.all())
}

func TestServer_ShutdownIsIdempotent(t *testing.T) {
	rec := &recorder{}
	s, _ := newTestServer(rec, errors.New("close failed"))

	s.Shutdown()
	s.Shutdown()

	assert.Equal(t, []string{"handlers", "sessions", "storages"}, rec.all())
}

func TestNewHTTPServer_Timeouts(t *testing.T) {
	h := newHTTPServer(http.NotFoundHandler(), config.Server{HTTPAddress: ":8080", RequestTimeout: 30 * time.Second}, logger.Nop())

	assert.Equal(t, ":8080", h.server.Addr)
	assert.Equal(t, readHeaderTimeout, h.server.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, h.server.ReadTimeout)
	assert.Zero(t, h.server.WriteTimeout)
}

func TestNewServer_NoHTTP(t *testing.T) {
	_, err := NewServer(&handler.Handlers{}, &service.Services{}, nil, nil, config.StructuredConfig{}, logger.Nop())

	require.ErrorIs(t, err, errNoServersAreCreated)
}
