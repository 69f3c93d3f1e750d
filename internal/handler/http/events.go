// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"io"
	"net/http"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

const keepAliveInterval = 15 * time.Second

// streamEvents attaches the caller as the observer of the slot and streams
// every event as a server-sent event until the client goes away. The stream
// opens with a state event describing the slot.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	slot := h.slot(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, ErrStreamingUnsupported, "response writer cannot flush")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	queue := make(chan models.Event, h.eventBuffer)
	detach := h.services.Events.Attach(slot, func(event models.Event) {
		select {
		case queue <- event:
		default:
			log.Warn().Str("slot", slot).Str("event", string(event.Type)).Msg("observer is lagging, event dropped")
		}
	})
	defer detach()

	status := h.services.Lifecycle.Status(slot)
	initial := models.Event{Type: models.EventState, Slot: slot, Time: time.Now(), State: &status}
	if err := utils.WriteSSE(w, string(initial.Type), initial); err != nil {
		log.Err(err).Msg("error writing initial event")
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("slot", slot).Msg("event stream closed by client")
			return
		case event := <-queue:
			if err := utils.WriteSSE(w, string(event.Type), event); err != nil {
				log.Err(err).Msg("error writing event")
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
