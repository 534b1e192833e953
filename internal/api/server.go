package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/progress-engine/internal/certification"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/events"
	"github.com/terra-clan/progress-engine/internal/health"
	"github.com/terra-clan/progress-engine/internal/leaderboard"
	"github.com/terra-clan/progress-engine/internal/metrics"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/storage"
)

// Dependencies are the collaborators the HTTP layer serves
type Dependencies struct {
	Registry      *curriculum.Registry
	Progress      *progress.Service
	Certification *certification.Service
	Board         leaderboard.Board
	Events        events.Subscriber
	Clients       storage.ClientStore
	Health        *health.Registry
	Metrics       *metrics.Metrics
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	registry       *curriculum.Registry
	progress       *progress.Service
	certs          *certification.Service
	board          leaderboard.Board
	events         events.Subscriber
	health         *health.Registry
	metrics        *metrics.Metrics
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if deps.Health == nil {
		deps.Health = health.NewRegistry()
	}

	s := &Server{
		config:         cfg,
		registry:       deps.Registry,
		progress:       deps.Progress,
		certs:          deps.Certification,
		board:          deps.Board,
		events:         deps.Events,
		health:         deps.Health,
		metrics:        deps.Metrics,
		authMiddleware: NewAuthMiddleware(deps.Clients),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived websocket stream, outside the request timeout
		r.Get("/progress/{address}/stream", s.handleProgressStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// Curriculum
			r.Get("/modules", s.handleListModules)
			r.Get("/modules/{moduleId}", s.handleGetModule)

			// Progress
			r.Post("/progress/complete", s.handleCompleteSection)
			r.Get("/progress/{address}", s.handleGetProgress)

			// Certifications
			r.Route("/certifications", func(r chi.Router) {
				r.Get("/tiers", s.handleListTiers)
				r.Post("/claim", s.handleClaim)
				r.Get("/{address}/eligibility", s.handleEligibility)
				r.Get("/{address}/claims", s.handleListClaims)
				r.Get("/{address}/claims/{moduleId}", s.handleGetClaim)
			})

			// Submissions
			r.Post("/submissions", s.handleSubmitChallenge)

			// Leaderboard
			r.Get("/leaderboard/{moduleId}", s.handleLeaderboard)

			// Admin routes (protected by authentication)
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.authMiddleware.Authenticate)
				r.With(s.authMiddleware.RequirePermission(models.PermissionSubmissionsRead)).
					Get("/submissions/{id}", s.handleGetSubmission)
				r.With(s.authMiddleware.RequirePermission(models.PermissionSubmissionsReview)).
					Post("/submissions/{id}/review", s.handleReviewSubmission)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog and records their latency
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			duration := time.Since(start)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			s.metrics.ObserveRequest(r.Method, route, strconv.Itoa(ww.Status()), duration)

			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", duration.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
