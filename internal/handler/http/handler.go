package http

import (
	"sync"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/service"
	"github.com/MKhiriev/go-session-keeper/internal/validators"
)

const defaultEventBuffer = 64

type Handler struct {
	services  *service.Services
	validator validators.Validator

	defaultSlot string
	eventBuffer int

	// background tracks restores that outlive their request.
	background sync.WaitGroup

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")

	eventBuffer := cfg.Server.EventBufferSize
	if eventBuffer <= 0 {
		eventBuffer = defaultEventBuffer
	}

	return &Handler{
		services:    services,
		validator:   validators.NewRequestValidator(),
		defaultSlot: cfg.App.DefaultSlot,
		eventBuffer: eventBuffer,
		logger:      logger,
	}
}

// Wait blocks until every background restore started by the handler has
// finished.
func (h *Handler) Wait() {
	h.background.Wait()
}
