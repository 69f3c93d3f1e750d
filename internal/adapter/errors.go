package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnprocessable       = errors.New("unprocessable entity")
	ErrBadGateway          = errors.New("bad gateway")
	ErrInternalServerError = errors.New("internal server error")

	// ErrSessionRejected is returned by Initialize when the bridge refuses to
	// load the session (unknown, unauthorised or malformed).
	ErrSessionRejected = errors.New("session rejected by bridge")

	// ErrBridgeFailure is returned when the bridge answers 2xx but reports
	// success=false.
	ErrBridgeFailure = errors.New("bridge reported failure")

	// ErrArchiveFetch is returned when a remote archive cannot be downloaded.
	ErrArchiveFetch = errors.New("archive download failed")

	// ErrConnectorClosed is returned by calls made after Close.
	ErrConnectorClosed = errors.New("connector is closed")
)
