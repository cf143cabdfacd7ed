package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	oapimw "github.com/oapi-codegen/nethttp-middleware"
	"github.com/rs/zerolog"

	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/http/openapi"
)

// RouterConfig carries the transport-level knobs.
type RouterConfig struct {
	// APIKey enables X-API-Key enforcement when non-empty.
	APIKey string
}

func Router(srv *Server, cfg RouterConfig) (http.Handler, error) {
	swagger, err := openapi.GetSwagger()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(srv.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(apiKeyAuth(cfg.APIKey))

	r.Get("/healthz", srv.GetHealthStatus)
	r.Get("/openapi.json", serveOpenAPI(swagger))

	r.Group(func(r chi.Router) {
		r.Use(oapimw.OapiRequestValidator(swagger))
		r.Post("/generate-message", srv.GenerateMessage)
	})

	return r, nil
}

func serveOpenAPI(swagger any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(swagger)
	}
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("request")
		})
	}
}

// apiKeyAuth validates X-API-Key when a key is configured. With no key
// configured enforcement is skipped entirely.
func apiKeyAuth(expected string) func(http.Handler) http.Handler {
	const hdr = "X-API-Key"
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(hdr) != expected {
				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`ApiKey header="%s"`, hdr))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
