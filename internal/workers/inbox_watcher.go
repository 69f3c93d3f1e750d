// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/fsnotify/fsnotify"
)

const (
	archiveExt        = ".zip"
	defaultDebounce   = 500 * time.Millisecond
	pendingQueueDepth = 32
)

// InboxWatcher restores every session archive dropped into a directory
// into one slot and removes the file afterwards. Archives already present
// when the watcher starts are picked up as well.
type InboxWatcher struct {
	dir      string
	slot     string
	debounce time.Duration

	restore service.RestoreService

	// pending receives paths whose debounce period has elapsed.
	pending chan string

	timersMu sync.Mutex
	timers   map[string]*time.Timer

	logger *logger.Logger
}

func NewInboxWatcher(restore service.RestoreService, cfg config.Workers, slot string, logger *logger.Logger) *InboxWatcher {
	debounce := cfg.InboxDebounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &InboxWatcher{
		dir:      cfg.InboxDir,
		slot:     slot,
		debounce: debounce,
		restore:  restore,
		pending:  make(chan string, pendingQueueDepth),
		timers:   make(map[string]*time.Timer),
		logger:   logger.GetChildLogger(),
	}
}

func (w *InboxWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInboxWatch, w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInboxWatch, err)
	}
	defer fsw.Close()

	if err = fsw.Add(w.dir); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInboxWatch, w.dir, err)
	}
	defer w.stopTimers()

	w.logger.Info().Str("dir", w.dir).Str("slot", w.slot).Dur("debounce", w.debounce).Msg("inbox watcher started")
	w.scanExisting()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("inbox watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Err(err).Msg("inbox watcher error")

		case path := <-w.pending:
			w.process(ctx, path)
		}
	}
}

func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isArchive(event.Name) {
		return
	}

	w.schedule(event.Name)
}

// schedule (re)starts the debounce timer of path. Only the last write of a
// burst queues the file.
func (w *InboxWatcher) schedule(path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.timersMu.Lock()
		delete(w.timers, path)
		w.timersMu.Unlock()

		select {
		case w.pending <- path:
		default:
			w.logger.Warn().Str("path", path).Msg("inbox queue is full, archive skipped")
		}
	})
}

func (w *InboxWatcher) stopTimers() {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func (w *InboxWatcher) scanExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Err(err).Msg("error listing inbox")
		return
	}

	for _, entry := range entries {
		if entry.Type().IsRegular() && isArchive(entry.Name()) {
			w.schedule(filepath.Join(w.dir, entry.Name()))
		}
	}
}

// process restores path and removes it. The outcome of the restore is
// reported on the slot's event stream, so errors are only logged here.
func (w *InboxWatcher) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return
	}

	log := w.logger.With().Str("path", path).Logger()
	log.Info().Msg("restoring archive from inbox")

	if err := w.restore.RestoreFromFile(ctx, w.slot, path); err != nil {
		log.Err(err).Msg("inbox restore failed")
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Err(err).Msg("error removing archive from inbox")
	}
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), archiveExt)
}
