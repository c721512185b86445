package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fxrates/internal/api"
	"fxrates/internal/api/middleware"
	"fxrates/internal/repository"
	"fxrates/internal/service"
)

const metricsPath = "/metrics"

func (app *App) initHTTP(ratesService service.RatesServiceInterface, store repository.RateStore) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(middleware.MetricsMiddleware(app.metrics, metricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Compress(5))

	r.Get("/", api.HandleRoot(version))
	r.Get("/health", api.HandleHealth(ratesService))
	r.Get("/api/latest", api.HandleLatestRates(ratesService))
	r.Get("/api/convert", api.HandleConvert(ratesService))
	r.Get("/api/updates/latest", api.HandleGetLatestUpdateRun(ratesService))
	r.Get("/api/updates/{id}", api.HandleGetUpdateRun(ratesService))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.readinessChecks(store)...))
	r.Method(http.MethodGet, metricsPath, app.metrics.Handler())

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.asynqmon != nil {
		r.Handle(app.asynqmon.RootPath()+"/*", app.asynqmon)
	}

	app.httpServer = &http.Server{
		Addr:              app.cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (app *App) readinessChecks(store repository.RateStore) []api.ReadinessCheck {
	checks := []api.ReadinessCheck{{Name: "Redis", Ping: store.HealthCheck}}
	if app.rdbAsynq != nil {
		checks = append(checks, api.ReadinessCheck{
			Name: "Asynq Redis",
			Ping: func(ctx context.Context) error { return app.rdbAsynq.Ping(ctx).Err() },
		})
	}
	if app.db != nil {
		checks = append(checks, api.ReadinessCheck{Name: "Postgres", Ping: app.db.PingContext})
	}
	return checks
}
