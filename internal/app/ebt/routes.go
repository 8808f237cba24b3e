// Package ebt собирает REST API: маршруты, middleware и зависимости процесса.
package ebt

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/ebt/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/auth/password"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/health"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/settings/access"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/settings/apikey"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/settings/get"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/settings/webhook"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/task/create"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/task/list"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/task/remove"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/task/stats"
	"github.com/magabrotheeeer/ebt/internal/http/handlers/task/update"
	"github.com/magabrotheeeer/ebt/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebt/internal/metrics"
	authservice "github.com/magabrotheeeer/ebt/internal/services/auth"
	settingsservice "github.com/magabrotheeeer/ebt/internal/services/settings"
	taskservice "github.com/magabrotheeeer/ebt/internal/services/task"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/ebt/docs"
)

// Services — бизнес-сервисы, которые обслуживает API.
type Services struct {
	Auth     *authservice.AuthService
	Settings *settingsservice.SettingsService
	Tasks    *taskservice.TaskService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, limiter *middlewarectx.RateLimiter, allowedOrigins []string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	authenticate := func(allow middlewarectx.Credentials) func(http.Handler) http.Handler {
		return middlewarectx.Authenticate(logger, svc.Auth, svc.Settings, allow)
	}

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware(logger))
			r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		})

		// Только сессия
		r.Group(func(r chi.Router) {
			r.Use(authenticate(middlewarectx.AllowSession))
			r.Use(limiter.Middleware(logger))

			r.Post("/auth/logout", logout.New(logger, svc.Auth).ServeHTTP)
			r.Post("/auth/password", password.New(logger, svc.Auth).ServeHTTP)

			r.Post("/tasks/update", update.New(logger, svc.Tasks).ServeHTTP)
			r.Post("/tasks/delete", remove.New(logger, svc.Tasks).ServeHTTP)

			settings := get.New(logger, svc.Settings)
			r.Get("/settings", settings.ServeHTTP)
			r.Get("/settings/get", settings.ServeHTTP)
			r.Post("/settings/update-webhook", webhook.New(logger, svc.Settings).ServeHTTP)
			r.Post("/settings/generate-api-key", apikey.New(logger, svc.Settings).ServeHTTP)
			r.Post("/settings/api-access", access.New(logger, svc.Settings).ServeHTTP)
		})

		listTasks := list.New(logger, svc.Tasks)
		createTask := create.New(logger, svc.Tasks)
		taskStats := stats.New(logger, svc.Tasks)

		// Сессия или API-ключ
		r.Group(func(r chi.Router) {
			r.Use(authenticate(middlewarectx.AllowAny))
			r.Use(limiter.Middleware(logger))

			r.Get("/tasks", listTasks.ServeHTTP)
			r.Get("/tasks/list", listTasks.ServeHTTP)
			r.Post("/tasks", createTask.ServeHTTP)
			r.Post("/tasks/create", createTask.ServeHTTP)
			r.Get("/stats", taskStats.ServeHTTP)
			r.Get("/tasks/stats", taskStats.ServeHTTP)
		})

		// Только API-ключ
		r.Route("/public", func(r chi.Router) {
			r.Use(authenticate(middlewarectx.AllowAPIKey))
			r.Use(limiter.Middleware(logger))

			r.Get("/tasks/list", listTasks.ServeHTTP)
			r.Post("/tasks/create", createTask.ServeHTTP)
			r.Get("/stats", taskStats.ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
