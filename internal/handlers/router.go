package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"carelog/internal/database"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	Dependents *DependentHandler
	Routines   *RoutineHandler
	Logs       *LogHandler
	Events     *EventsHandler
}

// RouterConfig carries the cross-cutting pieces of the router
type RouterConfig struct {
	Middleware     *Middleware
	LoginLimit     func(http.Handler) http.Handler
	RequestTimeout time.Duration
	DB             *database.DB
	Logger         *zap.Logger
}

// NewRouter builds the HTTP API. The event stream is mounted outside the
// request timeout because it is long lived.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(RequestID)
	router.Use(cfg.Middleware.Logging)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", healthHandler(cfg.DB, cfg.Logger))

	router.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/auth/register", h.Auth.Register)
		if cfg.LoginLimit != nil {
			r.With(cfg.LoginLimit).Post("/auth/login", h.Auth.Login)
		} else {
			r.Post("/auth/login", h.Auth.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(cfg.Middleware.RequireAuth)
			r.Use(Timezone)

			r.Get("/dashboard/today", h.Dashboard.Today)

			r.Post("/dependents", h.Dependents.Create)
			r.Get("/dependents", h.Dependents.List)
			r.Get("/dependents/{id}", h.Dependents.Get)
			r.Put("/dependents/{id}", h.Dependents.Update)
			r.Delete("/dependents/{id}", h.Dependents.Delete)

			r.Post("/dependents/{id}/routines", h.Routines.Create)
			r.Get("/dependents/{id}/routines", h.Routines.List)
			r.Get("/routines/{id}", h.Routines.Get)
			r.Put("/routines/{id}", h.Routines.Update)
			r.Delete("/routines/{id}", h.Routines.Delete)

			r.Get("/routines/{id}/logs", h.Logs.ListByRoutine)
			r.Put("/schedules/{id}/log", h.Logs.Upsert)
			r.Delete("/schedules/{id}/log", h.Logs.Remove)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(cfg.Middleware.RequireAuth)
		r.Get("/events", h.Events.Stream)
	})

	return router
}

func healthHandler(db *database.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
