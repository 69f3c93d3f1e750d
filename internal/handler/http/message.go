package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

type messageSent struct {
	Status string `json:"status"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errors.Join(ErrInvalidJSON, err), "invalid JSON was passed")
		return
	}

	if err := h.services.Messages.SendMessage(r.Context(), h.slot(r), req); err != nil {
		writeError(w, r, err, "error sending message")
		return
	}

	utils.WriteJSON(w, messageSent{Status: "sent"}, http.StatusOK)
}
