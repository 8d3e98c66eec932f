package relay

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/thoughtstream/pkg/llm"
)

// handlePing is a liveness probe.
func (r *Relay) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus reports whether the relay holds a provider key. It answers
// 200 either way so clients can tell "unreachable" from "unconfigured".
func (r *Relay) handleStatus(c *fiber.Ctx) error {
	if r.config.APIKey == "" {
		return c.JSON(llm.StatusResponse{
			Status:     "error",
			Configured: false,
			Message:    "API key not configured",
		})
	}

	return c.JSON(llm.StatusResponse{
		Status:     "ok",
		Configured: true,
		Message:    "API configured correctly",
	})
}

// handlePersonas lists the personas clients may pass as personaId.
func (r *Relay) handlePersonas(c *fiber.Ctx) error {
	return c.JSON(r.catalog.Personas())
}

func (r *Relay) writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(llm.ErrorResponse{Error: message, Status: status})
}
