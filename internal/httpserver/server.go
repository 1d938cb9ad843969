package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisbric/relaykey/internal/domain"
)

// Server holds the HTTP router and its health-check dependencies. Domain
// routes (the proxied /proxy/{partner}/* route and the admin surface) are
// mounted onto Router by the caller after construction.
type Server struct {
	Router    *chi.Mux
	Logger    *slog.Logger
	store     domain.Pinger
	cache     domain.Pinger
	startedAt time.Time
}

// Config bundles the knobs NewServer needs beyond its dependencies.
type Config struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSOrigins    []string
}

// NewServer creates the global router: request-id assignment, structured
// logging, metrics, panic recovery, a request timeout, a body-size ceiling,
// and CORS, in that order, plus the three unauthenticated
// /health, /ready, /metrics endpoints.
func NewServer(cfg Config, logger *slog.Logger, store, cache domain.Pinger, metricsReg *prometheus.Registry) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		store:     store,
		cache:     cache,
		startedAt: time.Now(),
	}

	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(middleware.Timeout(cfg.RequestTimeout))
	s.Router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Relaykey", "X-Admin-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.Router.Get("/health", s.handleHealth)
	s.Router.Get("/ready", s.handleReady)
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondPlain(w, http.StatusOK, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.store.Ping(ctx); err != nil {
		s.Logger.Error("readiness check: store ping failed", "error", err)
		respondPlain(w, http.StatusServiceUnavailable, "store not ready")
		return
	}

	if err := s.cache.Ping(ctx); err != nil {
		s.Logger.Error("readiness check: cache ping failed", "error", err)
		respondPlain(w, http.StatusServiceUnavailable, "cache not ready")
		return
	}

	respondPlain(w, http.StatusOK, "ready")
}

func respondPlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
