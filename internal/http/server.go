// Package http exposes the record store and pricing engine as a JSON
// API. Handlers stay thin: parse, call the store or engine, encode.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"installerpro/internal/pricing"
	"installerpro/internal/store"
)

// Server wraps the standard http.Server with the API's dependencies.
type Server struct {
	http.Server

	store         *store.Store
	totals        pricing.TotalPolicy
	includeClient bool

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures the router and returns a ready-to-run server.
func NewServer(addr string, st *store.Store, totals pricing.TotalPolicy, includeClient bool) *Server {
	s := &Server{
		store:         st,
		totals:        totals,
		includeClient: includeClient,
		rateLimiter:   newRateLimiter(),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(chimw.RealIP)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/technician", s.handleGetTechnician)
		r.Put("/technician", s.handlePutTechnician)

		r.Get("/installations", s.handleListInstallations)
		r.Post("/installations", s.handleCreateInstallation)
		r.Delete("/installations/{id}", s.handleDeleteInstallation)

		r.Get("/fuel", s.handleListFuel)
		r.Post("/fuel", s.handleCreateFuel)
		r.Delete("/fuel/{id}", s.handleDeleteFuel)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/days", s.handleDays)
		r.Post("/rollover", s.handleRollover)

		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/pdf", s.handleExportPDF)
		r.Get("/backup", s.handleBackup)
		r.Post("/restore", s.handleRestore)
	})

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter's cleanup goroutine and drains the
// HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.Server.Handler
}
