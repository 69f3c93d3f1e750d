package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
)

const readHeaderTimeout = 5 * time.Second

type httpServer struct {
	server *http.Server
	logger *logger.Logger
}

// newHTTPServer leaves WriteTimeout unset: event streams stay open for as
// long as the observer is connected.
func newHTTPServer(handler http.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	headerTimeout := readHeaderTimeout
	if cfg.RequestTimeout > 0 && cfg.RequestTimeout < headerTimeout {
		headerTimeout = cfg.RequestTimeout
	}

	return &httpServer{
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler,
			ReadHeaderTimeout: headerTimeout,
			ReadTimeout:       cfg.RequestTimeout,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
	}
}

// serve blocks until the server is shut down. A closed server is not an
// error.
func (h *httpServer) serve() error {
	h.logger.Info().Str("address", h.server.Addr).Msg("launching HTTP server")
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *httpServer) shutdown(ctx context.Context) {
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Err(err).Msg("HTTP server shutdown")
	}
}
