// Package api собирает HTTP API подписок: маршруты, зависимости и запуск сервера.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/create"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/read"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/remove"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/upcoming"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/userlist"
	usersget "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/get"
	userslist "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/list"
	userspassword "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/password"
	usersremove "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/remove"
	usersupdate "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/users/update"
	wfcancel "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/workflow/cancel"
	wftrigger "github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/workflow/trigger"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	authservice "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	subservice "github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/trigger"
)

// Deps зависимости обработчиков.
type Deps struct {
	Auth          *authservice.AuthService
	Subscriptions *subservice.SubscriptionService
	Dispatcher    *trigger.Dispatcher
	Checks        map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", health.New(logger, d.Checks).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))
			r.Post("/auth/sign-up", register.New(logger, d.Auth).ServeHTTP)
			r.Post("/auth/sign-in", login.New(logger, d.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

			r.Post("/auth/sign-out", logout.New(logger).ServeHTTP)

			r.Put("/users/password", userspassword.New(logger, d.Auth).ServeHTTP)
			r.Get("/users/{id}", usersget.New(logger, d.Auth).ServeHTTP)
			r.Put("/users/{id}", usersupdate.New(logger, d.Auth).ServeHTTP)

			r.Post("/subscriptions", create.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/upcoming-renewals", upcoming.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/user/{id}", userlist.New(logger, d.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/{id}", read.New(logger, d.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}", update.New(logger, d.Subscriptions).ServeHTTP)
			r.Delete("/subscriptions/{id}", remove.New(logger, d.Subscriptions).ServeHTTP)
			r.Put("/subscriptions/{id}/cancel", cancel.New(logger, d.Subscriptions).ServeHTTP)

			// Только для администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
				r.Get("/users", userslist.New(logger, d.Auth).ServeHTTP)
				r.Delete("/users/{id}", usersremove.New(logger, d.Auth).ServeHTTP)
				r.Post("/workflows/subscriptions/reminder", wftrigger.New(logger, d.Dispatcher).ServeHTTP)
				r.Post("/workflows/subscriptions/cancel", wfcancel.New(logger, d.Dispatcher).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
