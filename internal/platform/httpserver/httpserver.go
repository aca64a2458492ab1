// Package httpserver builds the API's *http.Server.
package httpserver

import (
	"net/http"
	"time"

	"compliancehub/internal/platform/config"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 30 * time.Second
)

// New applies the configured timeouts. Read timeout covers multipart
// document uploads, so it defaults higher than the write timeout.
func New(cfg config.Server, handler http.Handler) *http.Server {
	read, write := cfg.ReadTimeout, cfg.WriteTimeout
	if read <= 0 {
		read = defaultReadTimeout
	}
	if write <= 0 {
		write = defaultWriteTimeout
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       read,
		WriteTimeout:      write,
		IdleTimeout:       120 * time.Second,
	}
}
