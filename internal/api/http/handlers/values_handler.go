package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// ValuesHandler is the sample protected resource.
type ValuesHandler struct{}

// NewValuesHandler constructs handler.
func NewValuesHandler() *ValuesHandler {
	return &ValuesHandler{}
}

// List handles GET /api/values.
func (h *ValuesHandler) List(c *fiber.Ctx) error {
	return c.JSON([]string{"value1", "value2"})
}

// Get handles GET /api/values/:id.
func (h *ValuesHandler) Get(c *fiber.Ctx) error {
	return c.JSON("value")
}

// Accept answers the write endpoints, which do not store anything.
func (h *ValuesHandler) Accept(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}
