package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, h.withSlot)

	router.Get("/api/events", h.streamEvents)

	router.Group(func(r chi.Router) {
		r.Use(withGZip)

		r.Get("/api/version", h.getServerVersion)

		r.Post("/api/session/upload", h.uploadSession)
		r.Post("/api/session/link", h.restoreFromLink)
		r.Get("/api/session/status", h.sessionStatus)
		r.Get("/api/session/history", h.sessionHistory)
		r.Delete("/api/session", h.stopSession)

		r.Post("/api/message", h.sendMessage)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
