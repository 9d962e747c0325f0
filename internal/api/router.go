package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/consultaflow/practice-scheduling/internal/outreach"
	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

type RouterConfig struct {
	Scheduling      *scheduling.Service
	Automation      *outreach.Service
	Scheduler       *outreach.Scheduler
	Dispatcher      *outreach.Dispatcher
	TZ              *timezone.Adapter
	PgPool          *pgxpool.Pool
	Redis           *redis.Client
	DispatchTimeout time.Duration
	Env             string
	Version         string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability and slots
	r.Route("/availability", func(r chi.Router) {
		r.Get("/", listAvailabilityHandler(cfg.Scheduling))
		r.Post("/", upsertRuleHandler(cfg.Scheduling))
		r.Delete("/{id}", deleteRuleHandler(cfg.Scheduling))
		r.Get("/blackouts", listBlackoutsHandler(cfg.Scheduling))
		r.Post("/blackouts", addBlackoutHandler(cfg.Scheduling))
		r.Get("/slots", listSlotsHandler(cfg.Scheduling))
	})

	// Appointments
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(cfg.Scheduling, cfg.TZ))
		r.Post("/", bookAppointmentHandler(cfg.Scheduling, cfg.TZ))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Scheduling, cfg.TZ))
	})

	// Automation
	r.Route("/automation", func(r chi.Router) {
		r.Get("/settings", getSettingsHandler(cfg.Automation))
		r.Put("/settings", updateSettingsHandler(cfg.Automation))
		r.Get("/templates", listTemplatesHandler(cfg.Automation))
		r.Put("/templates/{kind}", updateTemplateHandler(cfg.Automation))
		r.Post("/tick", runTickHandler(cfg.Scheduler, cfg.Dispatcher, cfg.DispatchTimeout))
	})

	return r
}
