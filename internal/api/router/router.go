// Package router assembles the HTTP surface of the reservation platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicbook/reservation-platform/internal/availability"
	httpmiddleware "github.com/clinicbook/reservation-platform/internal/http/middleware"
	"github.com/clinicbook/reservation-platform/internal/reservations"
	syncjobs "github.com/clinicbook/reservation-platform/internal/sync"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	ReservationsHandler *reservations.Handler
	SyncHandler         *syncjobs.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string

	// RateLimitPerSecond caps availability evaluations per client IP.
	// Zero disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AvailabilityHandler != nil {
			api.Group(func(slots chi.Router) {
				if cfg.RateLimitPerSecond > 0 {
					slots.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
				}
				slots.Get("/availability", cfg.AvailabilityHandler.GetSlots)
				slots.Post("/availability/pair", cfg.AvailabilityHandler.PostPairSlots)
				slots.Post("/availability/group", cfg.AvailabilityHandler.PostGroupSlots)
			})
		}
		if cfg.ReservationsHandler != nil {
			cfg.ReservationsHandler.RegisterRoutes(api)
		}
	})

	if cfg.SyncHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.SyncHandler.RegisterRoutes(admin)
		})
	}

	return r
}
