// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"io"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/models"
)

// ArchiveIngester turns a session archive into a session directory.
// Every method validates the ZIP magic before anything is extracted and
// removes its temporary copy of the archive whatever the outcome.
type ArchiveIngester interface {
	FromReader(ctx context.Context, source models.ArchiveSource, r io.Reader) (models.ExtractedSession, error)
	FromURL(ctx context.Context, url string) (models.ExtractedSession, error)
	FromFile(ctx context.Context, path string) (models.ExtractedSession, error)
}

// LifecycleManager owns the client sessions, at most one per slot, and
// drives each of them from Initializing to Ready or to a terminal state.
type LifecycleManager interface {
	// Start brings up a client for session in slot. A Ready slot keeps its
	// client and only refreshes the session info; a slot that is still
	// validating returns ErrSessionBusy.
	Start(ctx context.Context, slot string, session models.ExtractedSession) error
	Status(slot string) models.SessionStatus
	// ReadyConnector returns the connector of a Ready slot or a
	// *PreconditionError.
	ReadyConnector(slot string) (adapter.Connector, error)
	Stop(ctx context.Context, slot string) error
	Shutdown(ctx context.Context) error
}

// InfoFetcher reports the account and group membership of a ready client.
type InfoFetcher interface {
	Fetch(ctx context.Context, slot string, conn adapter.Connector) error
}

// MessageDispatcher sends outbound messages through a Ready client.
type MessageDispatcher interface {
	SendMessage(ctx context.Context, slot string, req models.SendMessageRequest) error
}

// Observer receives the events of one slot. It must not block.
type Observer func(event models.Event)

// EventBroadcaster fans events out to the observer attached to a slot.
type EventBroadcaster interface {
	// Attach makes o the observer of slot, replacing any previous one.
	// The returned func detaches o unless it was replaced meanwhile.
	Attach(slot string, o Observer) (detach func())
	Emit(slot string, event models.Event)
}

// RestoreService runs the restore flow: ingest an archive, then start a
// client on the extracted session.
type RestoreService interface {
	RestoreFromUpload(ctx context.Context, slot, name string, r io.Reader) error
	RestoreFromURL(ctx context.Context, slot, url string) error
	RestoreFromFile(ctx context.Context, slot, path string) error
	History(ctx context.Context, slot string, limit int) ([]models.RestoreRecord, error)
}

// AppInfoService reports build metadata.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) models.VersionInfo
}
