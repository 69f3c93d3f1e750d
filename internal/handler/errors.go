// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

var (
	// errNoHandlersAreCreated is returned by NewHandlers when the server
	// configuration enables no transport. The application fails at startup.
	errNoHandlersAreCreated = errors.New("no handlers are created")

	errNoServices = errors.New("services are not initialized")
)
