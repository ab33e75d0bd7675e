package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// JobService is the part of the supervisor the HTTP layer needs
type JobService interface {
	Submit(sourceURL string) (string, error)
	Status(id string) (types.Job, error)
	Jobs() []types.Job
}

// JobHandler handles job submission and status lookups
type JobHandler struct {
	jobs JobService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// SubmitRequest represents the request body
type SubmitRequest struct {
	URL string `json:"url"`
}

// Submit queues a new clipping job for the given video URL
func (h *JobHandler) Submit(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	jobID, err := h.jobs.Submit(req.URL)
	if err != nil {
		if errors.Is(err, types.ErrInvalidSource) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid YouTube URL",
				"code":  "ERR_INVALID_SOURCE",
			})
		}
		logger.Errorf("Failed to submit job: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit job",
			"code":  "ERR_INTERNAL",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": jobID,
		"status": types.StatusQueued,
	})
}

// Get returns the current state of one job
func (h *JobHandler) Get(c *fiber.Ctx) error {
	job, err := h.jobs.Status(c.Params("id"))
	if err != nil {
		return notFound(c)
	}
	return c.JSON(job)
}

// List returns all jobs, newest first
func (h *JobHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"jobs": h.jobs.Jobs()})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Job not found",
		"code":  "ERR_NOT_FOUND",
	})
}
