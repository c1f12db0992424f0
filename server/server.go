// Package server exposes the recommendation engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hubenschmidt/go-bookmatch/catalog"
	"github.com/hubenschmidt/go-bookmatch/engine"
	"github.com/hubenschmidt/go-bookmatch/logging"
)

// Recommender is the engine surface the server needs.
type Recommender interface {
	Recommend(ctx context.Context, title string, maxResults int) (engine.Result, error)
	Book(ctx context.Context, id string) (catalog.Record, error)
	Stats(ctx context.Context) (engine.Stats, error)
	Rebuild(ctx context.Context) (engine.RebuildReport, error)
}

// Config configures a new Server instance.
type Config struct {
	Engine Recommender

	// Gatherer backs GET /metrics; nil disables the route.
	Gatherer prometheus.Gatherer

	// RebuildTimeout bounds POST /rebuild (default 10m).
	RebuildTimeout time.Duration
}

type Server struct {
	engine         Recommender
	gatherer       prometheus.Gatherer
	rebuildTimeout time.Duration
	validate       *validator.Validate
	log            zerolog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) *Server {
	timeout := cfg.RebuildTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Server{
		engine:         cfg.Engine,
		gatherer:       cfg.Gatherer,
		rebuildTimeout: timeout,
		validate:       validator.New(),
		log:            logging.Component("http"),
	}
}

// Handler returns an http.Handler for the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/recommend", s.handleRecommend)
	r.Get("/books/{id}", s.handleBook)
	r.Get("/stats", s.handleStats)
	r.Post("/rebuild", s.handleRebuild)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}
