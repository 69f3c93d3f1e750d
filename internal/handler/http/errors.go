// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors produced while parsing requests. Callers can match against
// them with [errors.Is].
var (
	// ErrInvalidSlot is returned by the slot middleware when the `slot` query
	// parameter holds anything other than letters, digits, '-' and '_', or
	// is longer than 64 characters.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrInvalidLimit is returned when the `limit` query parameter is not a
	// positive integer.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidJSON is returned when a request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON was passed")

	// ErrMissingArchive is returned when a multipart upload has no `file`
	// part.
	ErrMissingArchive = errors.New("multipart upload has no `file` part")

	// ErrStreamingUnsupported is returned when the response writer cannot
	// flush, which server-sent events require.
	ErrStreamingUnsupported = errors.New("streaming is not supported")
)
