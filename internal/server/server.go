package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// DefaultRefreshInterval is the minimum time between two manual refreshes.
const DefaultRefreshInterval = 5 * time.Second

// Backend is what the API serves. *app.App implements it.
type Backend interface {
	View() (*app.RouteView, error)
	Markers() ([]app.MarkerView, error)
	Delivery(id string) (*app.DeliveryView, error)
	Toggle(ctx context.Context, id string) (bool, error)
	Reset(ctx context.Context) error
	Completed() []string
	Stats() models.Stats
	Load(ctx context.Context) (*service.SyncResult, error)
	Geocode(ctx context.Context) (service.ResolveStats, bool)
	Ping(ctx context.Context) error
}

// Options configure the HTTP API.
type Options struct {
	AllowedOrigins  []string      // CORS origins, all when empty
	RefreshInterval time.Duration // minimum time between manual refreshes
}

// Server exposes the route tracker over HTTP.
type Server struct {
	chi.Router

	ctx     context.Context // bounds background geocoding passes
	log     *slog.Logger
	backend Backend
	refresh *rate.Limiter
}

// New builds the router. ctx bounds the geocoding passes started by refresh requests.
func New(ctx context.Context, log *slog.Logger, backend Backend, gatherer prometheus.Gatherer, opts Options) *Server {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	srv := &Server{
		Router:  chi.NewRouter(),
		ctx:     ctx,
		log:     log,
		backend: backend,
		refresh: rate.NewLimiter(rate.Every(opts.RefreshInterval), 1),
	}

	srv.Use(middleware.RealIP)
	srv.Use(srv.logRequests)
	srv.Use(middleware.Recoverer)

	srv.Get("/healthz", srv.handleHealth)
	srv.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv.Route("/api", func(r chi.Router) {
		r.Use(corsOptions(opts.AllowedOrigins).Handler)
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/route", srv.handleRoute)
		r.Get("/markers", srv.handleMarkers)
		r.Get("/deliveries/{id}", srv.handleDelivery)

		r.Get("/progress", srv.handleProgress)
		r.Delete("/progress", srv.handleReset)
		r.Post("/progress/{id}/toggle", srv.handleToggle)

		r.Post("/refresh", srv.handleRefresh)
	})

	return srv
}

func corsOptions(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control", "Pragma"},
		MaxAge:         300,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.DebugContext(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// handleHealth reports whether the store answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "OK"
	if err := s.backend.Ping(r.Context()); err != nil {
		s.log.WarnContext(r.Context(), "Health check failed", "error", err)
		status, body = http.StatusServiceUnavailable, "DB ping failed"
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write reply", "error", err)
	}
}
