package api

import (
	"net/http"
	"time"

	"github.com/harborline/stockroom-backend/pkg/config"
)

// NewServer builds the HTTP server cmd/api runs.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
