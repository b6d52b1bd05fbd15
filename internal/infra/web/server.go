package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"crm-call-insights/internal/config"
	"crm-call-insights/internal/domain/ports/repository"
	"crm-call-insights/internal/usecase"
)

// Server is the ops HTTP surface: health, metrics, queue inspection and the
// manual pipeline trigger. Everything under /api/v1 requires a bearer token.
type Server struct {
	processUC *usecase.ProcessUseCase
	queueRepo repository.RecordingQueueRepository
	auth      *AuthManager
	cfg       config.OpsConfig
	queueCfg  config.QueueConfig
	log       *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(
	processUC *usecase.ProcessUseCase,
	queueRepo repository.RecordingQueueRepository,
	cfg config.OpsConfig,
	queueCfg config.QueueConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "OpsServer").Logger()
	return &Server{
		processUC: processUC,
		queueRepo: queueRepo,
		auth:      NewAuthManager(cfg.JWTSecret, 0),
		cfg:       cfg,
		queueCfg:  queueCfg,
		log:       &l,
	}
}

// Router builds the chi router. Exposed separately from Start so tests can
// drive it through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/queue", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/process", s.handleProcess)
		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleEnqueue)
		r.Post("/items/{id}/requeue", s.handleRequeue)
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.cfg.Port).Msg("ops server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}
