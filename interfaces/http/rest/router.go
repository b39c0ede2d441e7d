package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"labeltree/application/commands/bus"
	"labeltree/application/ports"
	querybus "labeltree/application/queries/bus"
	"labeltree/interfaces/http/rest/handlers"
	"labeltree/interfaces/http/rest/middleware"
	pkgerrors "labeltree/pkg/errors"
	"labeltree/pkg/observability"
)

const readinessTimeout = 2 * time.Second

// Options switches optional router features
type Options struct {
	EnableCORS  bool
	CORSOrigins []string
	EnableXRay  bool
	ServiceName string
	// Debug exposes internal error messages and stack traces in responses
	Debug bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	readiness  ports.HealthChecker
	metrics    *observability.Collector
	logger     *zap.Logger
	opts       Options
}

// NewRouter creates a new router instance. readiness and metrics may be nil.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	readiness ports.HealthChecker,
	metrics *observability.Collector,
	logger *zap.Logger,
	opts Options,
) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "labeltree"
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		readiness:  readiness,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.opts.EnableXRay {
		router.Use(observability.XRayMiddleware(rt.opts.ServiceName))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed")
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/tree", func(r chi.Router) {
		treeHandler := handlers.NewTreeHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
		r.Get("/", treeHandler.GetTree)
		r.Post("/", treeHandler.CreateNode)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	writeStatus(w, http.StatusOK, "healthy")
}

// readinessCheck pings the store when it can report readiness
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.readiness == nil {
		writeStatus(w, http.StatusOK, "ready")
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), readinessTimeout)
	defer cancel()

	if err := rt.readiness.Ping(ctx); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
