// Package api provides the HTTP API server and handlers for the illustrations server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illustrationsapp/illustrations-server/internal/auth"
	"github.com/illustrationsapp/illustrations-server/internal/logger"
	"github.com/illustrationsapp/illustrations-server/internal/metrics"
	"github.com/illustrationsapp/illustrations-server/internal/ratelimit"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// Options holds router-level settings.
type Options struct {
	Version     string
	CORSOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	tokens   *auth.TokenService
	limiter  *ratelimit.KeyedRateLimiter
	router   *chi.Mux
	api      huma.API
	log      *logger.Logger
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// A nil limiter disables rate limiting.
func NewServer(st store.Store, services *Services, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, opts Options, log *logger.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		store:    st,
		services: services,
		tokens:   tokens,
		limiter:  limiter,
		router:   chi.NewRouter(),
		log:      log,
		logger:   log.Logger,
	}

	s.setupMiddleware(log, opts)
	s.api = humachi.New(s.router, newHumaConfig(opts.Version))
	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func newHumaConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("Illustrations API", version)
	// Responses are wrapped in the envelope, so no $schema links.
	cfg.CreateHooks = nil
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

func (s *Server) setupMiddleware(log *logger.Logger, opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogger(log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.tokens))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerBulkRoutes()
	s.registerIllustrationRoutes()
	s.registerTagRoutes()
	s.registerPlaceRoutes()
}
