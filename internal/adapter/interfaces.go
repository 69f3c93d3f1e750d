// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the outbound integrations of the server.
//
// The primary abstraction is [Connector], the live link to one messaging
// account that the client lifecycle manager drives. Connectors are built per
// session by a [ConnectorFactory]; the package ships an HTTP implementation
// that talks to a whatsapp-web.js REST bridge ([NewBridgeConnectorFactory]).
// [ArchiveFetcher] downloads session archives from remote URLs.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrSessionRejected] when the bridge refuses a session).
package adapter

import (
	"context"
	"io"

	"github.com/MKhiriev/go-session-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// Connector is the opaque capability that connects one restored session to
// the remote messaging service.
type Connector interface {
	// Initialize asks the remote side to load the session. It returns once
	// the request was accepted; the outcome arrives later as a
	// [models.ConnectorEvent]. A refused session yields [ErrSessionRejected].
	Initialize(ctx context.Context) error

	// Subscribe registers fn for every readiness, auth-failure, disconnect
	// and error signal. It must be called before Initialize.
	Subscribe(fn func(models.ConnectorEvent))

	// GetChats lists the chats of the account.
	GetChats(ctx context.Context) ([]models.Chat, error)

	// SendMessage sends body to recipient, a chat id such as
	// "15551234567@c.us".
	SendMessage(ctx context.Context, recipient, body string) error

	// Info returns the account descriptor, or nil while it is not populated.
	Info() *models.AccountDescriptor

	// Close stops signal delivery and releases the remote session.
	// Subsequent calls are no-ops.
	Close(ctx context.Context) error
}

// ConnectorFactory builds a fresh Connector for an extracted session.
type ConnectorFactory interface {
	NewConnector(session models.ExtractedSession) (Connector, error)
}

// ArchiveFetcher streams a remote archive into dst and reports the number of
// bytes written.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url string, dst io.Writer) (int64, error)
}
