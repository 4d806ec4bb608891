package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/internal/handlers"
	"github.com/onemama/telehealth-ussd/internal/middleware"
)

// Options controls how the routes are protected
type Options struct {
	DebugToken     string
	AllowOpenDebug bool
	GatewaySecret  string
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, ussd *handlers.USSDHandler, debug *handlers.SessionDebugHandler, health *handlers.HealthHandler, opts Options) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Telehealth Platform USSD API is running",
			"version": health.Version,
			"endpoints": fiber.Map{
				"health":   "/api/health",
				"session":  "/api/ussd/session",
				"sessions": "/api/ussd/sessions",
			},
		})
	})

	app.Get("/health", health.Check)

	api := app.Group("/api")
	api.Get("/health", health.Check)

	// ========== USSD ROUTES ==========
	ussdGroup := api.Group("/ussd")

	if opts.GatewaySecret != "" {
		ussdGroup.Post("/session", middleware.ValidateGatewaySignature(opts.GatewaySecret), ussd.HandleSession)
	} else {
		ussdGroup.Post("/session", ussd.HandleSession)
		log.Warn().Msg("USSD gateway signature validation DISABLED")
	}

	// ========== DEBUG ROUTES ==========
	sessions := ussdGroup.Group("/sessions", middleware.RequireDebugToken(opts.DebugToken, opts.AllowOpenDebug))
	sessions.Get("/", debug.ListSessions)
	sessions.Get("/:id", debug.GetSession)
	sessions.Delete("/:id", debug.DeleteSession)
}
