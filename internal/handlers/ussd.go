package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/internal/models"
	"github.com/onemama/telehealth-ussd/internal/services"
)

// USSDHandler handles USSD gateway requests
type USSDHandler struct {
	ussdService *services.USSDService
}

// NewUSSDHandler creates a new USSD handler
func NewUSSDHandler(ussdService *services.USSDService) *USSDHandler {
	return &USSDHandler{
		ussdService: ussdService,
	}
}

// HandleSession processes one turn of a USSD dialog. Gateways post either
// JSON or form bodies; the reply is JSON unless the caller prefers text/plain.
func (h *USSDHandler) HandleSession(c *fiber.Ctx) error {
	var req models.USSDRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid USSD request body")
		return h.respond(c, fiber.StatusBadRequest, models.USSDResponse{
			Response: services.InvalidRequestReply().String(),
			Message:  "Missing required parameters",
		})
	}

	reply, err := h.ussdService.Process(c.UserContext(), req)
	switch {
	case err == nil:
		return h.respond(c, fiber.StatusOK, models.USSDResponse{Response: reply.String()})

	case errors.Is(err, services.ErrInvalidRequest):
		return h.respond(c, fiber.StatusBadRequest, models.USSDResponse{
			Response: reply.String(),
			Message:  "Missing required parameters",
		})

	default:
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("USSD error")
		return h.respond(c, fiber.StatusInternalServerError, models.USSDResponse{
			Response: reply.String(),
			Error:    err.Error(),
		})
	}
}

func (h *USSDHandler) respond(c *fiber.Ctx, status int, resp models.USSDResponse) error {
	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextPlain) == fiber.MIMETextPlain {
		return c.Status(status).SendString(resp.Response)
	}
	return c.Status(status).JSON(resp)
}
