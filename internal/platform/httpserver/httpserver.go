package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"trustline/internal/platform/config"
)

const maxHeaderBytes = 64 << 10

// New builds the API server. Server-level errors (TLS handshakes, bad
// requests rejected before routing) go to logger at warn level.
func New(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * cfg.WriteTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
