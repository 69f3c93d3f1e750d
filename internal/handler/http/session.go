// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

const (
	archiveFormField = "file"
	fileNameHeader   = "X-File-Name"
)

// restoreAccepted is the body of a 202 answer to a restore request. The
// outcome of the validation is delivered on the event stream.
type restoreAccepted struct {
	Slot  string              `json:"slot"`
	State models.SessionState `json:"state"`
}

// uploadSession ingests the archive from a multipart `file` part or from the
// raw body. Ingestion errors are answered directly; the session validation
// that follows is reported on the event stream.
func (h *Handler) uploadSession(w http.ResponseWriter, r *http.Request) {
	slot := h.slot(r)

	name, body, err := archiveFromRequest(r)
	if err != nil {
		writeError(w, r, err, "error reading uploaded archive")
		return
	}
	defer body.Close()

	ctx := context.WithoutCancel(r.Context())
	if err := h.services.Restore.RestoreFromUpload(ctx, slot, name, body); err != nil {
		writeError(w, r, err, "error restoring uploaded session")
		return
	}

	utils.WriteJSON(w, restoreAccepted{Slot: slot, State: h.services.Lifecycle.Status(slot).State}, http.StatusAccepted)
}

// restoreFromLink answers 202 once the request is valid and downloads the
// archive in the background.
func (h *Handler) restoreFromLink(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	slot := h.slot(r)

	var req models.RestoreFromLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errors.Join(ErrInvalidJSON, err), "invalid JSON was passed")
		return
	}

	if err := h.validator.Validate(r.Context(), req); err != nil {
		writeError(w, r, err, "invalid restore link")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		if err := h.services.Restore.RestoreFromURL(ctx, slot, req.URL); err != nil {
			log.Err(err).Str("slot", slot).Msg("restore from link failed")
		}
	}()

	utils.WriteJSON(w, restoreAccepted{Slot: slot, State: h.services.Lifecycle.Status(slot).State}, http.StatusAccepted)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.services.Lifecycle.Status(h.slot(r)), http.StatusOK)
}

func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	if err := h.services.Lifecycle.Stop(r.Context(), h.slot(r)); err != nil {
		writeError(w, r, err, "error stopping session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// archiveFromRequest returns the archive stream of an upload and a name for
// it. Multipart bodies are streamed part by part, so the archive is never
// held in memory.
func archiveFromRequest(r *http.Request) (string, io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		name := r.Header.Get(fileNameHeader)
		if name == "" {
			name = "upload"
		}
		return name, r.Body, nil
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, errors.Join(ErrMissingArchive, err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, ErrMissingArchive
		}
		if err != nil {
			return "", nil, errors.Join(ErrMissingArchive, err)
		}

		if part.FormName() == archiveFormField {
			name := part.FileName()
			if name == "" {
				name = archiveFormField
			}
			return name, part, nil
		}
		part.Close()
	}
}
