// Package gatekeeper предоставляет маршруты для основного приложения.
package gatekeeper

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/alerts-gatekeeper/internal/config"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/confirmpayment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/grantsub"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/listusers"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/paymentrequest"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/register"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/rejectpayment"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/revokesub"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/status"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/handlers/trial"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/alerts-gatekeeper/internal/lib/jwt"
	lifecycleservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/lifecycle"
	paymentservice "github.com/magabrotheeeer/alerts-gatekeeper/internal/services/payment"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(ctx context.Context, r chi.Router, logger *slog.Logger,
	lifecycleSvc *lifecycleservice.Service, paymentSvc *paymentservice.Service,
	jwtMaker jwt.Maker, cfg *config.Config) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	limiter := rate.NewLimiter(10, 30)

	r.Route("/api/v1", func(r chi.Router) {
		// Пользовательские конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
			r.Post("/users/register", register.New(ctx, logger, lifecycleSvc).ServeHTTP)
			r.Post("/users/{id}/trial", trial.New(ctx, logger, lifecycleSvc).ServeHTTP)
			r.Get("/users/{id}/access", status.New(ctx, logger, lifecycleSvc).ServeHTTP)
			r.Post("/users/{id}/payments", paymentrequest.New(ctx, logger, paymentSvc, cfg.Payments.Phone).ServeHTTP)
		})

		// Административная группа с JWT аутентификацией
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.AdminJWTMiddleware(jwtMaker, logger))
			r.Post("/payments/{id}/confirm", confirmpayment.New(ctx, logger, paymentSvc).ServeHTTP)
			r.Post("/payments/{id}/reject", rejectpayment.New(ctx, logger, paymentSvc).ServeHTTP)
			r.Post("/users/{id}/grant", grantsub.New(ctx, logger, lifecycleSvc, cfg.Access.GrantDays).ServeHTTP)
			r.Post("/users/{id}/revoke", revokesub.New(ctx, logger, lifecycleSvc).ServeHTTP)
			r.Get("/users", listusers.New(ctx, logger, lifecycleSvc).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
