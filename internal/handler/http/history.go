package http

import (
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
)

func (h *Handler) sessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, ErrInvalidLimit, "invalid history limit")
			return
		}
		limit = n
	}

	records, err := h.services.Restore.History(r.Context(), h.slot(r), limit)
	if err != nil {
		writeError(w, r, err, "error reading restore history")
		return
	}
	if records == nil {
		records = []models.RestoreRecord{}
	}

	utils.WriteJSON(w, records, http.StatusOK)
}
