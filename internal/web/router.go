package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/foodrescue/foodrescued/internal/backend"
	"github.com/foodrescue/foodrescued/internal/metrics"
	"github.com/foodrescue/foodrescued/internal/ratelimit"
	"github.com/foodrescue/foodrescued/internal/session"
)

// RouterDeps holds all dependencies for the gateway router.
type RouterDeps struct {
	Backend  *backend.Client
	Sessions SessionStore
	Activity ActivityRecorder
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics
	Renderer *Renderer
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(session.Middleware(deps.Sessions))

	// Handlers.
	auth := newAuthHandler(deps.Backend, deps.Sessions, deps.Activity, deps.Metrics, deps.Renderer)
	dash := newDashboardHandler(deps.Backend, deps.Renderer)
	offers := newOffersHandler(deps.Backend, deps.Activity, deps.Renderer)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	// Entry points.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/login", auth.ShowLogin)
	r.Post("/login", auth.Login)
	r.Get("/signup", auth.ShowSignup)
	r.Post("/signup", auth.Signup)
	r.Post("/logout", auth.Logout)

	// Everything below requires a live session.
	r.Group(func(gr chi.Router) {
		gr.Use(session.RequireSession)

		gr.Get("/dashboard", dash.Show)

		throttled := throttleMiddleware(deps)

		gr.Route("/angebote", func(ar chi.Router) {
			// Provider side.
			ar.Group(func(pr chi.Router) {
				pr.Use(RequireRole(backend.RoleProvider))
				pr.Get("/neu", offers.NewForm)
				pr.With(throttled).Post("/", offers.Create)
				pr.With(throttled).Post("/{id}/veroeffentlichen", offers.Publish)
			})

			// Picker side.
			ar.Group(func(pr chi.Router) {
				pr.Use(RequireRole(backend.RolePicker))
				pr.Get("/", offers.List)
				pr.Get("/{id}", offers.Detail)
				pr.With(throttled).Post("/{id}/reservieren", offers.Reserve)
			})
		})
	})

	return r
}

// throttleMiddleware rate-limits mutating actions per session. A nil limiter
// disables throttling (tests).
func throttleMiddleware(deps RouterDeps) func(http.Handler) http.Handler {
	if deps.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if deps.Metrics != nil {
		return ratelimit.Middleware(deps.Limiter, deps.Metrics.IncActionRejection)
	}
	return ratelimit.Middleware(deps.Limiter)
}
