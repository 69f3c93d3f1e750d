package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/internal/validators"
)

// errorStatusMap is ordered: wrapped errors may match several entries and
// the first match wins.
var errorStatusMap = []struct {
	err    error
	status int
}{
	{ErrInvalidSlot, http.StatusBadRequest},
	{ErrInvalidLimit, http.StatusBadRequest},
	{ErrInvalidJSON, http.StatusBadRequest},
	{ErrMissingArchive, http.StatusBadRequest},

	{validators.ErrEmptyRecipient, http.StatusBadRequest},
	{validators.ErrInvalidRecipient, http.StatusBadRequest},
	{validators.ErrEmptyMessage, http.StatusBadRequest},
	{validators.ErrEmptyURL, http.StatusBadRequest},
	{validators.ErrInvalidURL, http.StatusBadRequest},

	{service.ErrNotConnected, http.StatusConflict},
	{service.ErrSessionBusy, http.StatusConflict},
	{service.ErrSendMessage, http.StatusBadGateway},

	{store.ErrSessionExists, http.StatusConflict},
	{store.ErrInvalidSessionID, http.StatusBadRequest},

	{service.ErrArchiveInvalid, http.StatusBadRequest},
	{service.ErrArchiveTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrArchiveFetch, http.StatusBadRequest},
	{service.ErrExtraction, http.StatusUnprocessableEntity},
	{service.ErrAuthInvalid, http.StatusUnprocessableEntity},
	{service.ErrConnectionTimeout, http.StatusGatewayTimeout},
	{service.ErrInternal, http.StatusInternalServerError},
}

func statusFromError(err error) int {
	for _, entry := range errorStatusMap {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers with its mapped status. Server-side
// failures hide their details from the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFromError(err)
	logger.FromRequest(r).Err(err).Int("status", status).Msg(msg)

	text := err.Error()
	if status == http.StatusInternalServerError {
		text = http.StatusText(status)
	}
	http.Error(w, text, status)
}
