package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

type RouterConfig struct {
	Service *appointment.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Log     zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Service

	r.Route("/appointment-requests", func(r chi.Router) {
		r.Post("/", createRequestHandler(svc))
		r.Get("/", listRequestsHandler(svc))
		r.Post("/{id}/confirm", confirmRequestHandler(svc))
		r.Post("/{id}/decline", declineRequestHandler(svc))
		r.Post("/{id}/assign", assignRequestHandler(svc))
	})

	r.Get("/availability", availabilityHandler(svc))

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(svc))
		r.Get("/", listAppointmentsHandler(svc))
		r.Post("/conflicts", conflictsHandler(svc))
		r.Get("/{id}", getAppointmentHandler(svc))
		r.Patch("/{id}/status", updateStatusHandler(svc))
		r.Post("/{id}/cancel", cancelAppointmentHandler(svc))
	})

	return r
}
