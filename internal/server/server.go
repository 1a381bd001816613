// Package server exposes workspaces over an HTTP API.
//
// Routes:
//
//	POST   /workspaces/{id}/generate               run a generation job
//	GET    /workspaces/{id}/diagram                committed diagram
//	GET    /workspaces/{id}/job                    running job, if any
//	PATCH  /workspaces/{id}/nodes/{node}           label/style patch
//	PUT    /workspaces/{id}/nodes/{node}/position  move a node
//	GET    /workspaces/{id}/export.{format}        export (png, svg, dot, json)
//	DELETE /workspaces/{id}                        delete the workspace
//	GET    /healthz                                liveness
//	GET    /metrics                                Prometheus metrics
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/trazo/pkg/buildinfo"
	"github.com/matzehuels/trazo/pkg/observability"
	"github.com/matzehuels/trazo/pkg/workspace"
)

const (
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 1 << 20

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 30 * time.Second
)

// Options configures a [Server].
type Options struct {
	// Gatherer serves /metrics. Defaults to the Prometheus default registry.
	Gatherer     prometheus.Gatherer
	MaxBodyBytes int64
	Logger       *log.Logger
}

// Server is the HTTP API over a workspace manager.
type Server struct {
	manager *workspace.Manager
	opts    Options
	logger  *log.Logger
	router  chi.Router
}

// New creates a server.
func New(m *workspace.Manager, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	s := &Server{manager: m, opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/workspaces/{id}", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/diagram", s.handleGetDiagram)
		r.Get("/job", s.handleGetJob)
		r.Patch("/nodes/{node}", s.handleEditNode)
		r.Put("/nodes/{node}/position", s.handleMoveNode)
		r.Get("/export.{format}", s.handleExport)
		r.Delete("/", s.handleDelete)
	})
	return r
}

// observe reports requests to the HTTP hooks and logs them.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"bytes", ww.BytesWritten(), "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Get().Version,
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:           addr,
		Handler:        s.Handler(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", ShutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errc
}
