package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pharmat-audit/internal/api/http/handlers"
	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Submissions    *handlers.SubmissionsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Get)
	}

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Post("/check-email", cfg.Auth.CheckEmail)
	api.Post("/send-code", cfg.Auth.SendCode)
	api.Post("/verify-code", cfg.Auth.VerifyCode)
	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)
	api.Get("/session", cfg.Auth.Session)
	api.Post("/logout", cfg.Auth.Logout)

	authenticated := auth.Authenticated()
	api.Get("/profile", authenticated, cfg.Profile.Get)
	api.Post("/profile", authenticated, cfg.Profile.Save)
	api.Get("/submissions", authenticated, cfg.Submissions.List)

	employee := auth.HasRole(domain.RoleEmployee)
	api.Post("/submissions", employee, cfg.Submissions.Save)
	api.Post("/submissions/status", auth.HasRole(domain.RoleRGA), cfg.Submissions.UpdateStatus)
	api.Post("/submissions/delete", employee, cfg.Submissions.Delete)
}
