package http

import (
	"net/http"
	"regexp"

	"github.com/MKhiriev/go-session-keeper/internal/utils"
)

const slotParam = "slot"

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// withSlot resolves the client slot from the `slot` query parameter,
// falling back to the configured default, and stores it in the request
// context.
func (h *Handler) withSlot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := r.URL.Query().Get(slotParam)
		if slot == "" {
			slot = h.defaultSlot
		}

		if !slotPattern.MatchString(slot) {
			writeError(w, r, ErrInvalidSlot, "invalid slot in request")
			return
		}

		next.ServeHTTP(w, r.WithContext(utils.WithSlot(r.Context(), slot)))
	})
}

// slot returns the slot resolved by withSlot.
func (h *Handler) slot(r *http.Request) string {
	if slot, ok := utils.GetSlotFromContext(r.Context()); ok {
		return slot
	}
	return h.defaultSlot
}
