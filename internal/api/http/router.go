package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	Cart           *handlers.CartHandler
	Orders         *handlers.OrdersHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimit guards signup and login. Nil disables it.
	RateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes. Middleware is attached per route rather than per group
// because fiber applies group handlers to every path under the prefix, public ones included.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Snapshot)
	}

	limit := cfg.RateLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	authn := cfg.AuthMiddleware.Handle
	staff := auth.RequireRoles(auth.Staff...)
	admins := auth.RequireRoles(auth.Administrators...)

	api := app.Group("/api/v1")

	users := api.Group("/users")
	users.Post("", limit, cfg.Users.Register)
	users.Post("/login", limit, cfg.Users.Login)
	users.Post("/logout", authn, cfg.Users.Logout)
	users.Post("/logout-all", authn, cfg.Users.LogoutAll)
	users.Get("/me", authn, cfg.Users.Me)
	users.Patch("/me", authn, cfg.Users.UpdateMe)
	users.Get("", authn, admins, cfg.Users.List)
	users.Get("/:id", authn, admins, cfg.Users.Get)
	users.Patch("/:id", authn, admins, cfg.Users.Update)
	users.Post("/:id/:action", authn, admins, cfg.Users.Action)

	products := api.Group("/products")
	products.Get("", cfg.Products.List)
	products.Get("/:id", cfg.Products.Get)
	products.Post("", authn, staff, cfg.Products.Create)
	products.Patch("/:id", authn, staff, cfg.Products.Update)
	products.Delete("/:id", authn, staff, cfg.Products.Delete)
	products.Post("/:id/stock", authn, staff, cfg.Products.AdjustStock)

	cart := api.Group("/cart")
	cart.Get("", authn, cfg.Cart.Get)
	cart.Post("/checkout", authn, cfg.Cart.Checkout)
	cart.Post("/:action", authn, cfg.Cart.Apply)

	orders := api.Group("/orders")
	orders.Post("", authn, cfg.Orders.Create)
	orders.Get("", authn, staff, cfg.Orders.List)
	orders.Get("/me", authn, cfg.Orders.ListMine)
	orders.Get("/:id", authn, cfg.Orders.Get)
	orders.Delete("/:id", authn, cfg.Orders.Delete)
	orders.Patch("/:id/status", authn, staff, cfg.Orders.UpdateStatus)
}
