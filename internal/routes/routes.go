// Package routes wires handlers to URLs.
package routes

import (
	"paybaba/internal/handlers"
	"paybaba/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health       *handlers.HealthHandler
	Gateway      *handlers.GatewayHandler
	Payments     *handlers.PaymentHandler
	Transactions *handlers.TransactionHandler
	CreditScores *handlers.CreditScoreHandler
	Alerts       *handlers.AlertHandler
	Metrics      fiber.Handler
}

// SetupRoutes mounts the public endpoints, the gateway webhook at
// callbackPath and the merchant API behind auth. Aggregate rebuilds are an
// operator action and need the admin role.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware, callbackPath string) {
	app.Get("/health", h.Health.HealthCheck)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	// Registered ahead of the /api group: the gateway authenticates by
	// signature, not by bearer token.
	app.Post(callbackPath, h.Gateway.Callback)

	api := app.Group("/api", auth.Handler)

	payments := api.Group("/payments")
	payments.Post("/", h.Payments.CreatePayment)
	payments.Get("/:id/status", h.Payments.PaymentStatus)

	transactions := api.Group("/transactions")
	transactions.Post("/", h.Transactions.Record)
	transactions.Get("/:id", h.Transactions.Get)
	transactions.Post("/:id/refund", h.Transactions.Refund)
	transactions.Post("/:id/settle", h.Transactions.Settle)
	api.Post("/aggregates/rebuild", middleware.RequireRole(middleware.RoleAdmin), h.Transactions.RebuildAggregates)

	scores := api.Group("/credit-score")
	scores.Post("/calculate", h.CreditScores.Calculate)
	scores.Get("/", h.CreditScores.Latest)
	scores.Get("/history", h.CreditScores.History)

	alerts := api.Group("/alerts")
	alerts.Post("/evaluate", h.Alerts.Evaluate)
	alerts.Get("/", h.Alerts.List)
	alerts.Post("/:id/resolve", h.Alerts.Resolve)
}
