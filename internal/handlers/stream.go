package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// DefaultPollInterval is how often the stream checks the job for changes
const DefaultPollInterval = 500 * time.Millisecond

// StreamHandler pushes job snapshots over a WebSocket until the job finishes
type StreamHandler struct {
	jobs     JobService
	interval time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(jobs JobService, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &StreamHandler{jobs: jobs, interval: interval}
}

// Upgrade rejects plain HTTP requests and unknown jobs before the WebSocket handshake
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := h.jobs.Status(c.Params("id")); err != nil {
		return notFound(c)
	}
	return c.Next()
}

// Handle processes WebSocket connections
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	jobID := c.Params("id")
	log := logger.WithJob(jobID)
	log.Debug("WebSocket status stream opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a read error means the client went away
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	err := WatchJob(ctx, h.jobs.Status, jobID, h.interval, func(job types.Job) error {
		return c.WriteJSON(job)
	})
	if err != nil && ctx.Err() == nil {
		log.Debugf("WebSocket status stream ended: %v", err)
	}
}

// WatchJob calls send with the job snapshot whenever its status changes,
// starting with the current one, and returns nil once a terminal snapshot
// has been sent.
func WatchJob(ctx context.Context, get func(string) (types.Job, error), jobID string, interval time.Duration, send func(types.Job) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last types.JobStatus
	for {
		job, err := get(jobID)
		if err != nil {
			return err
		}
		if job.Status != last {
			if err := send(job); err != nil {
				return err
			}
			last = job.Status
		}
		if job.Status.IsTerminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
