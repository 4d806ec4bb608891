package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version     string
	Environment string
	StoreType   string
	// Ping checks the backing store; nil for the in-memory store
	Ping func() error
	// ActiveSessions reports the number of live USSD sessions
	ActiveSessions func() int
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK
	storeHealthy := true

	if h.Ping != nil {
		if err := h.Ping(); err != nil {
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
			storeHealthy = false
		}
	}

	resp := fiber.Map{
		"status":      status,
		"service":     "TeleHealth USSD",
		"version":     h.Version,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.Environment,
		"storage": fiber.Map{
			"type":    h.StoreType,
			"healthy": storeHealthy,
		},
	}
	if h.ActiveSessions != nil {
		resp["sessions"] = h.ActiveSessions()
	}

	return c.Status(code).JSON(resp)
}
