// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-session-keeper/models"
)

var (
	ErrArchiveFetch    = errors.New("session archive could not be fetched")
	ErrArchiveInvalid  = errors.New("session archive is not a ZIP file")
	ErrArchiveTooLarge = errors.New("session archive exceeds the size limit")
	ErrExtraction      = errors.New("session archive could not be extracted")

	ErrAuthInvalid       = errors.New("session is invalid or expired")
	ErrConnectionTimeout = errors.New("connection timed out")
	ErrInternal          = errors.New("internal error")
	ErrSessionBusy       = errors.New("a session is already being validated in this slot")

	ErrNotConnected = errors.New("client is not connected")
	ErrSendMessage  = errors.New("message could not be sent")

	ErrVersionIsNotSpecified = errors.New("application version is not specified")
)

// PreconditionError is returned when an operation needs a Ready client but
// the slot is in another state. It matches [ErrNotConnected] with errors.Is.
type PreconditionError struct {
	Slot  string
	State models.SessionState
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("slot %q is %s: %s", e.Slot, e.State, ErrNotConnected)
}

func (e *PreconditionError) Unwrap() error {
	return ErrNotConnected
}
