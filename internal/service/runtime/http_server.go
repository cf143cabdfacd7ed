package runtime

import (
	"net/http"
	"time"

	"github.com/candelhealth/srbridge/internal/service/config"
)

// NewHTTPServer wraps the routed handler in an http.Server with the
// timeouts the service runs with everywhere.
func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
