package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/storage"
)

// ClipLister reads the published clip catalog
type ClipLister interface {
	ListClips(limit int) ([]storage.ClipRecord, error)
}

// ClipHandler serves the clip catalog
type ClipHandler struct {
	catalog ClipLister
}

// NewClipHandler creates a new clip handler
func NewClipHandler(catalog ClipLister) *ClipHandler {
	return &ClipHandler{catalog: catalog}
}

// List returns the most recent published clips. ?limit=N caps the result.
func (h *ClipHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", storage.DefaultListLimit)
	if limit <= 0 || limit > 1000 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 1000",
			"code":  "ERR_INVALID_LIMIT",
		})
	}

	clips, err := h.catalog.ListClips(limit)
	if err != nil {
		logger.Errorf("Failed to list clips: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list clips",
			"code":  "ERR_INTERNAL",
		})
	}
	return c.JSON(fiber.Map{"clips": clips})
}
