package server

import (
	"context"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/handler"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/MKhiriev/go-session-keeper/internal/workers"
)

const shutdownTimeout = 15 * time.Second

type server struct {
	httpServer *httpServer

	handlers waiter
	sessions sessionsTeardown
	workers  backgroundRunner
	storages io.Closer

	stopWorkers context.CancelFunc
	workersDone chan struct{}

	shutdownOnce sync.Once
	logger       *logger.Logger
}

func NewServer(
	handlers *handler.Handlers,
	services *service.Services,
	workers *workers.Workers,
	storages io.Closer,
	cfg config.StructuredConfig,
	logger *logger.Logger,
) (Server, error) {
	logger.Info().Msg("creating new server...")

	if handlers == nil || handlers.HTTP == nil || cfg.Server.HTTPAddress == "" {
		return nil, errNoServersAreCreated
	}

	return &server{
		httpServer: newHTTPServer(handlers.HTTP.Init(), cfg.Server, logger),
		handlers:   handlers,
		sessions:   services.Lifecycle,
		workers:    workers,
		storages:   storages,
		logger:     logger,
	}, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	s.run(ctx)
}

// run serves until ctx is cancelled or the listener fails, then shuts down.
func (s *server) run(ctx context.Context) {
	s.startWorkers()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.serve()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("termination signal received")
	case err := <-serveErr:
		if err != nil {
			s.logger.Err(err).Msg("HTTP server stopped")
		}
	}

	s.Shutdown()
	s.logger.Info().Msg("server Shutdown gracefully")
}

func (s *server) startWorkers() {
	workersCtx, cancel := context.WithCancel(context.Background())
	s.stopWorkers = cancel
	s.workersDone = make(chan struct{})

	go func() {
		defer close(s.workersDone)
		if err := s.workers.Run(workersCtx); err != nil {
			s.logger.Err(err).Msg("workers stopped with error")
		}
	}()
}

// Shutdown stops the server in dependency order. It is safe to call more
// than once.
func (s *server) Shutdown() {
	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.httpServer.shutdown(ctx)

		if s.stopWorkers != nil {
			s.stopWorkers()
			<-s.workersDone
		}

		s.handlers.Wait()

		if err := s.sessions.Shutdown(ctx); err != nil {
			s.logger.Err(err).Msg("error tearing down client sessions")
		}

		if s.storages != nil {
			if err := s.storages.Close(); err != nil {
				s.logger.Err(err).Msg("error closing storages")
			}
		}
	})
}
