package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers builds the workers enabled by cfg. The inbox watcher is the only
// one so far and runs when an inbox directory is configured.
func NewWorkers(services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) *Workers {
	w := &Workers{}

	if cfg.Workers.InboxDir != "" {
		w.workers = append(w.workers, NewInboxWatcher(services.Restore, cfg.Workers, cfg.App.DefaultSlot, logger))
	}

	logger.Info().Int("count", len(w.workers)).Msg("workers created")
	return w
}

// Run starts every worker and blocks until all of them have returned.
func (w *Workers) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, worker := range w.workers {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}
