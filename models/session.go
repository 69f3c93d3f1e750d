// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ArchiveSourceKind tells where the bytes of a session archive came from.
type ArchiveSourceKind string

const (
	ArchiveSourceUpload ArchiveSourceKind = "upload"
	ArchiveSourceURL    ArchiveSourceKind = "url"
	ArchiveSourceInbox  ArchiveSourceKind = "inbox"
)

// ArchiveSource describes the origin of a session archive.
// Location is the remote URL, the uploaded file name or the inbox path.
type ArchiveSource struct {
	Kind     ArchiveSourceKind `json:"kind"`
	Location string            `json:"location,omitempty"`
}

// String renders the source as "kind:location" for logs and history records.
func (s ArchiveSource) String() string {
	if s.Location == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Location
}

// ExtractedSession is a session directory produced from a validated archive.
// It is owned by the session store until it is handed over to a connector.
type ExtractedSession struct {
	// ID is either taken from a `session-<id>` entry of the archive or
	// generated at restore time.
	ID string `json:"id"`

	// Path is the absolute path of the session directory.
	Path string `json:"path"`

	Source      ArchiveSource `json:"source"`
	ExtractedAt time.Time     `json:"extracted_at"`
}

// SessionState is a state of the client lifecycle state machine.
type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateInitializing       SessionState = "initializing"
	StateAwaitingValidation SessionState = "awaiting_validation"
	StateReady              SessionState = "ready"
	StateFailed             SessionState = "failed"
	StateDisconnected       SessionState = "disconnected"
)

// IsTerminal reports whether the state ends a client session instance.
func (s SessionState) IsTerminal() bool {
	return s == StateFailed || s == StateDisconnected
}

// FailureReason qualifies the Failed state.
type FailureReason string

const (
	FailureNone          FailureReason = ""
	FailureAuthInvalid   FailureReason = "auth_invalid"
	FailureTimeout       FailureReason = "timeout"
	FailureInternalError FailureReason = "internal_error"
)

// SessionStatus is a point-in-time snapshot of a slot.
type SessionStatus struct {
	Slot      string        `json:"slot"`
	SessionID string        `json:"session_id,omitempty"`
	State     SessionState  `json:"state"`
	Reason    FailureReason `json:"reason,omitempty"`

	// Detail carries the disconnect reason or the error text of a failure.
	Detail string    `json:"detail,omitempty"`
	Since  time.Time `json:"since"`
}
