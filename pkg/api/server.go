// Package api serves the solver over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/grid?radius=N
//	GET  /v1/aspects
//	GET  /v1/aspects/{name}
//	GET  /v1/aspects/path?from=A&to=B[&steps=N]
//	POST /v1/solve
//	POST /v1/exact
//	GET  /v1/runs[?limit=N]
//	GET  /v1/runs/{id}
//	GET  /metrics
//
// Solve bodies are [pipeline.Options] as JSON. Failures answer with
// {"code": ..., "message": ...} and a status derived from the code.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/history"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/pipeline"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Config wires the server to its collaborators. Runner and Aspects are
// required; the rest have defaults.
type Config struct {
	Runner  *pipeline.Runner
	Aspects *aspect.Graph

	// History records solves; nil keeps them in memory.
	History history.Store

	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer

	// Defaults fills heuristic and exact options a request leaves zero.
	Defaults pipeline.Options

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.History == nil {
		cfg.History = history.NewMemoryStore(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/grid", s.handleGrid)
		r.Route("/aspects", func(r chi.Router) {
			r.Get("/", s.handleAspects)
			r.Get("/path", s.handleAspectPath)
			r.Get("/{name}", s.handleAspect)
		})
		r.Post("/solve", s.handleSolve)
		r.Post("/exact", s.handleExact)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	if s.cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.cfg.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

const shutdownTimeout = 15 * time.Second
