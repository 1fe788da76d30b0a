// Package ui exposes the pipeline over a JSON HTTP API. Everything binds to
// localhost-style usage; there is no auth layer because the server is a
// local tool, not a shared service.
package ui

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"hypolab/app"
	hl "hypolab/internal"
)

// Config holds UI application configuration
type Config struct {
	Port string
}

// App represents the API application
type App struct {
	router   *chi.Mux
	pipeline *app.Pipeline
	logger   *hl.Logger
	port     string
}

// NewApp creates the API application around an existing pipeline
func NewApp(config Config, pipeline *app.Pipeline, logger *hl.Logger) (*App, error) {
	if logger == nil {
		logger = hl.NewDefaultLogger()
	}
	a := &App{
		router:   chi.NewRouter(),
		pipeline: pipeline,
		logger:   logger,
		port:     config.Port,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	a.router.Post("/api/runs", a.handleCreateRun)
	a.router.Get("/api/runs/{runID}", a.handleGetRun)
	a.router.Get("/api/runs/{runID}/instructions", a.handleInstructions)

	a.router.Get("/api/hypotheses", a.handleListHypotheses)
	a.router.Get("/api/experiments", a.handleListExperiments)
	a.router.Post("/api/experiments/{experimentID}/execute", a.handleExecuteExperiment)

	a.router.Post("/api/selfcheck", a.handleSelfCheck)
}

// Router exposes the handler for tests and embedding
func (a *App) Router() http.Handler {
	return a.router
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.port,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.logger.Info("api listening on :%s", a.port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
