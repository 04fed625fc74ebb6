package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"insights/internal/platform/config"
	"insights/internal/platform/logger"
)

// Server is a chi mux behind a stdlib http.Server
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads PORT, WRITE_TIMEOUT and SHUTDOWN_GRACE from cfg
// aggregate queries can run long, the write timeout bounds them from the outside
func NewServer(cfg config.Conf) *Server {
	m := chi.NewRouter()
	return &Server{
		mux:   m,
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("PORT", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.MayDuration("WRITE_TIMEOUT", 60*time.Second),
		},
	}
}

// Router returns the mux behind the Router seam
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is done, then drains in flight requests for the grace period
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), s.grace)
			defer cancel()
			if err := s.srv.Shutdown(sctx); err != nil {
				log.Error().Err(err).Msg("http shutdown")
			}
		case <-done:
		}
	}()

	log.Info().Str("addr", s.srv.Addr).Msg("http listening")
	if err := s.srv.ListenAndServe(); !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
