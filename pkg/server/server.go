// Package server assembles the HTTP API: stores, middleware, routers and
// the health endpoints.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/critsec/iams/pkg/activity"
	"github.com/critsec/iams/pkg/cache"
	"github.com/critsec/iams/pkg/catalog"
	"github.com/critsec/iams/pkg/config"
	"github.com/critsec/iams/pkg/dashboard"
	"github.com/critsec/iams/pkg/ledger"
	"github.com/critsec/iams/pkg/metrics"
	"github.com/critsec/iams/pkg/registry"
)

// Server holds the assembled stores and serves the API.
type Server struct {
	db     *gorm.DB
	logger *slog.Logger

	catalogStore  *catalog.Store
	activityStore *activity.Store
	registryStore *registry.Store
	ledgerStore   *ledger.Store
	dashStore     *dashboard.Store

	cacheManager *cache.Manager
	metrics      *metrics.Metrics

	dbTimeout time.Duration
	started   time.Time
}

// New wires all stores against the shared database handle.
func New(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	catalogStore := catalog.NewStore(db)
	activityStore := activity.NewStore(db)
	registryStore := registry.NewStore(db, activityStore)
	ledgerStore := ledger.NewStore(db, catalogStore, activityStore)

	return &Server{
		db:            db,
		logger:        logger,
		catalogStore:  catalogStore,
		activityStore: activityStore,
		registryStore: registryStore,
		ledgerStore:   ledgerStore,
		dashStore:     dashboard.NewStore(db),
		cacheManager:  cache.NewManager(cfg.DashboardCacheTTL, 64),
		metrics:       metrics.New(),
		dbTimeout:     cfg.DBTimeout,
		started:       time.Now(),
	}
}

// Migrate creates or updates all tables.
func (s *Server) Migrate() error {
	if err := s.catalogStore.AutoMigrate(); err != nil {
		return err
	}
	if err := s.activityStore.AutoMigrate(); err != nil {
		return err
	}
	if err := s.registryStore.AutoMigrate(); err != nil {
		return err
	}
	return s.ledgerStore.AutoMigrate()
}

// MountRoutes builds the router.
func (s *Server) MountRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.dbTimeout > 0 {
		r.Use(middleware.Timeout(s.dbTimeout))
	}
	r.Use(s.metrics.Middleware)
	r.Use(activity.Middleware())
	r.Use(s.invalidateDashboardOnWrite)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/catalog", catalog.Router(s.catalogStore))
		r.Mount("/events", ledger.Router(s.ledgerStore, s.logger))
		r.Mount("/activities", activity.Router(s.activityStore))
		r.Mount("/", registry.Router(s.registryStore, s.logger))
		r.With(s.cacheManager.DashboardMiddleware()).
			Mount("/dashboard", dashboard.Router(s.dashStore, s.logger))
	})

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)
	r.Get("/readyz", s.readyHandler)
	r.Handle("/metrics", s.metrics.Handler())

	return r
}

// invalidateDashboardOnWrite clears the dashboard cache after any mutating
// request, so a submission is visible on the next dashboard read instead of
// waiting out the TTL.
func (s *Server) invalidateDashboardOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			s.cacheManager.InvalidateDashboard()
		}
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ok uptime=%s", time.Since(s.started).Round(time.Second))
}

// readyHandler pings the database; a failed ping means not ready.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		s.logger.Error("readiness check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
