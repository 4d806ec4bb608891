package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onemama/telehealth-ussd/internal/models"
	"github.com/onemama/telehealth-ussd/internal/storage"
)

// SessionDebugHandler exposes read-only session dumps and force-delete
type SessionDebugHandler struct {
	store storage.SessionStore
}

// NewSessionDebugHandler creates a new session debug handler
func NewSessionDebugHandler(store storage.SessionStore) *SessionDebugHandler {
	return &SessionDebugHandler{
		store: store,
	}
}

// ListSessions returns every live session keyed by session id
func (h *SessionDebugHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.store.ListAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sessions")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sessions",
		})
	}

	byID := make(map[string]*models.USSDSession, len(sessions))
	for _, session := range sessions {
		byID[session.SessionID] = session
	}

	return c.JSON(fiber.Map{
		"sessions": byID,
		"count":    len(sessions),
	})
}

// GetSession returns one session
func (h *SessionDebugHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.store.Get(c.Params("id"))
	if errors.Is(err, storage.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Session not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch session",
		})
	}
	return c.JSON(session)
}

// DeleteSession force-clears one session
func (h *SessionDebugHandler) DeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")

	removed, err := h.store.Delete(id)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("Failed to clear session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear session",
		})
	}
	if !removed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Session not found"})
	}

	log.Info().Str("session_id", id).Msg("Session cleared via debug route")
	return c.JSON(fiber.Map{"msg": "Session cleared"})
}
