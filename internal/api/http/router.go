package http

import (
	"fmt"
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/authz"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Token          *handlers.TokenHandler
	UserInfo       *handlers.UserInfoHandler
	Values         *handlers.ValuesHandler
	AuthMiddleware *auth.AuthMiddleware
	Guard          *auth.Guard
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes. It fails when a route declares a requirement the
// evaluator cannot satisfy, such as an unregistered policy.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) error {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	connect := app.Group("/connect")
	connect.Post("/token", cfg.Token.Token)
	connect.Post("/introspect", cfg.Token.Introspect)
	connect.Post("/revocation", cfg.Token.Revoke)
	connect.Get("/userinfo", cfg.AuthMiddleware.Handle, cfg.UserInfo.Get)

	adminOffice, err := cfg.Guard.Require(
		authz.RequireRole("Administrator"),
		authz.RequirePolicy("OfficeNumberUnder400"),
	)
	if err != nil {
		return fmt.Errorf("GET /api/values: %w", err)
	}
	manager, err := cfg.Guard.Require(authz.RequireRole("Manager"))
	if err != nil {
		return fmt.Errorf("GET /api/values/:id: %w", err)
	}

	app.Get("/api/values", cfg.AuthMiddleware.Handle, adminOffice, cfg.Values.List)
	app.Get("/api/values/:id<int>", cfg.AuthMiddleware.Handle, manager, cfg.Values.Get)
	app.Post("/api/values", cfg.Values.Accept)
	app.Put("/api/values/:id<int>", cfg.Values.Accept)
	app.Delete("/api/values/:id<int>", cfg.Values.Accept)
	return nil
}
