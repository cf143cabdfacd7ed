package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/candelhealth/srbridge/internal/service/config"
	"github.com/candelhealth/srbridge/internal/service/runtime"
	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/fhir"
	"github.com/candelhealth/srbridge/internal/service/srbridge/adapters/hl7"
	srbridgeHTTP "github.com/candelhealth/srbridge/internal/service/srbridge/adapters/http"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app/commands"
	"github.com/candelhealth/srbridge/internal/service/srbridge/app/queries"
)

type Service struct {
	httpServer *http.Server
	log        zerolog.Logger
}

func NewSRBridgeService() (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := newLogger(cfg.LogLevel)

	hl7Composer := hl7.NewComposer(hl7.Config{
		SendingApplication:   cfg.SendingApplication,
		SendingFacility:      cfg.SendingFacility,
		ReceivingApplication: cfg.ReceivingApplication,
		ReceivingFacility:    cfg.ReceivingFacility,
	})
	fhirComposer := fhir.NewComposer()

	convertHandler := commands.NewConvertReportHandler(hl7Composer, fhirComposer)
	cmdBus := app.NewCommandBus(convertHandler)

	getCanonicalHandler := queries.NewGetCanonicalQueryHandler()
	queryBus := app.NewQueryBus(getCanonicalHandler)

	srv := srbridgeHTTP.NewServer(cmdBus, queryBus, log)
	router, err := srbridgeHTTP.Router(srv, srbridgeHTTP.RouterConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}

	return &Service{
		httpServer: runtime.NewHTTPServer(cfg, router),
		log:        log,
	}, nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Service) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(timeoutCtx); err != nil {
		return err
	}

	s.log.Info().Msg("server stopped")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
