// Package server provides the HTTP server and routing for yieldfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/yieldfolio/internal/database"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	dividendhandlers "github.com/aristath/yieldfolio/internal/modules/dividends/handlers"
	markethandlers "github.com/aristath/yieldfolio/internal/modules/market/handlers"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/yieldfolio/internal/modules/portfolio/handlers"
	"github.com/aristath/yieldfolio/internal/scheduler"
	"github.com/aristath/yieldfolio/internal/utils"
)

// RequestTimeout bounds every request, provider fallbacks included
const RequestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	DB        *database.DB
	Port      int
	DevMode   bool
	Market    markethandlers.MarketService
	Providers []string // Market-data providers in priority order, reported by the status endpoint
	Portfolio *portfolio.Service
	Entries   *dividends.EntryRepository
	Jobs      []scheduler.Job // Jobs that can be triggered through the API
	Runner    JobRunner       // Runs triggered jobs; defaults to a standalone scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	port           int
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	runner := cfg.Runner
	if runner == nil {
		runner = scheduler.New(cfg.Log)
	}

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		db:             cfg.DB,
		port:           cfg.Port,
		systemHandlers: NewSystemHandlers(cfg.DB, cfg.Providers, cfg.Jobs, runner, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(RequestTimeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", utils.OwnerHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleListJobs)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})

		if cfg.Market != nil {
			markethandlers.NewHandler(cfg.Market, s.log).RegisterRoutes(r)
		}
		if cfg.Portfolio != nil {
			portfoliohandlers.NewHandler(cfg.Portfolio, s.log).RegisterRoutes(r)
			if cfg.Entries != nil {
				dividendhandlers.NewHandler(cfg.Entries, cfg.Portfolio, s.log).RegisterRoutes(r)
			}
		}
	})
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("owner", utils.OwnerID(r)).
			Msg("HTTP request")
	})
}
