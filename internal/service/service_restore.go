// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/models"
)

type restoreService struct {
	ingester  ArchiveIngester
	lifecycle LifecycleManager
	events    EventBroadcaster
	history   store.RestoreHistoryRepository

	logger *logger.Logger
}

func NewRestoreService(
	ingester ArchiveIngester,
	lifecycle LifecycleManager,
	events EventBroadcaster,
	history store.RestoreHistoryRepository,
	logger *logger.Logger,
) RestoreService {
	return &restoreService{
		ingester:  ingester,
		lifecycle: lifecycle,
		events:    events,
		history:   history,
		logger:    logger,
	}
}

func (s *restoreService) RestoreFromUpload(ctx context.Context, slot, name string, r io.Reader) error {
	source := models.ArchiveSource{Kind: models.ArchiveSourceUpload, Location: name}
	return s.restore(ctx, slot, "Receiving session archive...", func(ctx context.Context) (models.ExtractedSession, error) {
		return s.ingester.FromReader(ctx, source, r)
	})
}

func (s *restoreService) RestoreFromURL(ctx context.Context, slot, url string) error {
	return s.restore(ctx, slot, "Downloading session archive...", func(ctx context.Context) (models.ExtractedSession, error) {
		return s.ingester.FromURL(ctx, url)
	})
}

func (s *restoreService) RestoreFromFile(ctx context.Context, slot, path string) error {
	return s.restore(ctx, slot, fmt.Sprintf("Picking up session archive %s...", filepath.Base(path)), func(ctx context.Context) (models.ExtractedSession, error) {
		return s.ingester.FromFile(ctx, path)
	})
}

func (s *restoreService) History(ctx context.Context, slot string, limit int) ([]models.RestoreRecord, error) {
	return s.history.List(ctx, slot, limit)
}

// restore skips ingestion when the slot is already Ready or still
// validating. Otherwise it ingests the archive and starts a client on it;
// ingestion failures end the flow with one error event and leave the slot
// untouched.
func (s *restoreService) restore(ctx context.Context, slot, intro string, ingest func(context.Context) (models.ExtractedSession, error)) error {
	switch s.lifecycle.Status(slot).State {
	case models.StateReady:
		return s.lifecycle.Start(ctx, slot, models.ExtractedSession{})
	case models.StateInitializing, models.StateAwaitingValidation:
		s.reportBusy(slot)
		return ErrSessionBusy
	}

	emitLog(s.events, slot, models.SeverityInfo, intro)
	session, err := ingest(ctx)
	if err != nil {
		s.reportIngestError(slot, err)
		return err
	}
	emitLog(s.events, slot, models.SeveritySuccess, fmt.Sprintf("Session %s extracted", session.ID))

	if err := s.lifecycle.Start(ctx, slot, session); err != nil {
		if errors.Is(err, ErrSessionBusy) {
			s.reportBusy(slot)
		}
		return err
	}

	return nil
}

func (s *restoreService) reportBusy(slot string) {
	emitLog(s.events, slot, models.SeverityError, "A session is already being validated, try again when it is done")
}

func (s *restoreService) reportIngestError(slot string, err error) {
	s.logger.Error().Err(err).Str("slot", slot).Msg("error ingesting session archive")

	switch {
	case errors.Is(err, ErrArchiveInvalid):
		emitLog(s.events, slot, models.SeverityError, "The file is not a valid ZIP archive")
		s.events.Emit(slot, models.Event{
			Type:     models.EventInvalidSession,
			Message:  ErrArchiveInvalid.Error(),
			Severity: models.SeverityError,
		})
	case errors.Is(err, ErrArchiveTooLarge):
		emitLog(s.events, slot, models.SeverityError, "The session archive is too large")
	case errors.Is(err, ErrArchiveFetch):
		emitLog(s.events, slot, models.SeverityError, "Could not get the session archive: "+err.Error())
	case errors.Is(err, ErrExtraction):
		emitLog(s.events, slot, models.SeverityError, "Could not extract the session archive: "+err.Error())
	default:
		emitLog(s.events, slot, models.SeverityError, "Restore failed: "+err.Error())
	}
}
