// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the HTTP surface: job submission and polling,
// retention marks, static media, and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/ManuGH/reelforge/internal/cleanup"
	"github.com/ManuGH/reelforge/internal/config"
	"github.com/ManuGH/reelforge/internal/log"
	"github.com/ManuGH/reelforge/internal/pipeline/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notifier wakes the worker pool after an enqueue.
type Notifier interface {
	Notify()
}

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	cfg    config.Config
	store  store.JobStore
	pool   Notifier
	marked *cleanup.MarkedSet
}

// NewServer builds the API server.
func NewServer(cfg config.Config, st store.JobStore, pool Notifier, marked *cleanup.MarkedSet) *Server {
	return &Server{cfg: cfg, store: st, pool: pool, marked: marked}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(120, time.Minute))

	api := func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/jobs", s.handleJobs)
		r.Post("/mark/{id}", s.handleMark)
		r.Post("/unmark/{id}", s.handleUnmark)
		r.Get("/is-marked/{id}", s.handleIsMarked)
	}
	r.Route("/api", api)
	// Compatibility mount for clients pinned to the versioned prefix.
	r.Route("/api/v1", api)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mountStatic := func(prefix, dir string) {
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", secureFileServer(dir)))
	}
	mountStatic("/assets", s.cfg.AssetsDir())
	mountStatic("/output", s.cfg.TempOutputDir())
	mountStatic("/cache", s.cfg.CacheRenderDir())

	return r
}

// requestID injects a request ID into the context for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), id)))
	})
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
