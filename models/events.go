// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// EventType names the kind of an event pushed to observers.
type EventType string

const (
	EventLog            EventType = "log"
	EventSessionInfo    EventType = "session-info"
	EventNoGroups       EventType = "no-groups"
	EventInvalidSession EventType = "invalid-session"
	EventState          EventType = "state"
)

// Severity is the tag of a log event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Event is a single message pushed to the observer of a slot.
// Only the fields relevant to Type are populated.
type Event struct {
	Type EventType `json:"type"`
	Slot string    `json:"slot"`
	Time time.Time `json:"time"`

	// log
	Message  string   `json:"message,omitempty"`
	Severity Severity `json:"severity,omitempty"`

	// session-info
	SessionInfo *SessionInfo `json:"session_info,omitempty"`

	// no-groups
	Account *AccountInfo `json:"account,omitempty"`

	// state
	State *SessionStatus `json:"state,omitempty"`
}

// NewLogEvent builds a log event stamped with the current time.
func NewLogEvent(slot string, severity Severity, message string) Event {
	return Event{
		Type:     EventLog,
		Slot:     slot,
		Time:     time.Now(),
		Message:  message,
		Severity: severity,
	}
}
