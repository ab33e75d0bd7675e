package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/cleanup"
	"github.com/codebuildervaibhav/topic-clipper/internal/clip"
	"github.com/codebuildervaibhav/topic-clipper/internal/config"
	"github.com/codebuildervaibhav/topic-clipper/internal/handlers"
	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/media"
	"github.com/codebuildervaibhav/topic-clipper/internal/queue"
	"github.com/codebuildervaibhav/topic-clipper/internal/segment"
	"github.com/codebuildervaibhav/topic-clipper/internal/storage"
	"github.com/codebuildervaibhav/topic-clipper/internal/transcription"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Tee logs into the in-memory buffer served by /logs
	logBuffer := logger.NewBuffer(logger.DefaultBufferLines)
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format, io.MultiWriter(os.Stdout, logBuffer))

	clipsDir := filepath.Join(cfg.Storage.TempDir, queue.ClipStagingDirName)
	if err := cleanup.EnsureDirs(cfg.Storage.TempDir, clipsDir, cfg.Storage.OutputDir); err != nil {
		logger.Fatalf("Failed to create working directories: %v", err)
	}

	logger.Info("Initializing components...")

	runner := media.ExecRunner{}
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, media.FFmpegOptions{
		AudioCodec:   cfg.Media.AudioCodec,
		AudioBitrate: cfg.Media.AudioBitrate,
		VideoCodec:   cfg.Media.VideoCodec,
		ClipAudio:    cfg.Media.ClipAudio,
	}, runner)

	openAITimeout := time.Duration(cfg.OpenAI.TimeoutMinutes) * time.Minute
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, segmentation requests will fail")
	}

	var backend transcription.Backend
	switch cfg.Transcription.Backend {
	case config.BackendWhisper:
		backend = transcription.NewWhisperTranscriber(cfg.Whisper.Model, cfg.Whisper.Language, runner)
		logger.Infof("Transcription: local whisper (%s)", cfg.Whisper.Model)
	default:
		backend = transcription.NewOpenAITranscriber(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey,
			cfg.OpenAI.TranscriptionModel, openAITimeout)
		logger.Infof("Transcription: OpenAI (%s)", cfg.OpenAI.TranscriptionModel)
	}

	planner := segment.NewPlanner(segment.NewOpenAISegmenter(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey,
		cfg.OpenAI.SegmentationModel, cfg.OpenAI.Temperature, openAITimeout))

	publisher := newPublisher(cfg)

	// Database
	catalog, err := storage.NewClipCatalog(cfg.Storage.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer catalog.Close()

	store := queue.NewStore()
	pipeline := queue.NewRunner(
		store,
		media.NewYtDlpFetcher(cfg.Media.YtDlpPath, runner),
		ffmpeg,
		backend,
		planner,
		clip.NewExtractor(ffmpeg, publisher, catalog),
		cfg.Storage.TempDir,
	)
	supervisor := queue.NewSupervisor(store, pipeline, cfg.Sources.AcceptedPrefixes, cfg.Workers.MaxConcurrent)

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		clipsDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: logger.Logger().Writer()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	jobHandler := handlers.NewJobHandler(supervisor)
	streamHandler := handlers.NewStreamHandler(supervisor, handlers.DefaultPollInterval)
	clipHandler := handlers.NewClipHandler(catalog)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
			"jobs":    store.Len(),
		})
	})

	app.Post("/jobs", jobHandler.Submit)
	app.Get("/jobs", jobHandler.List)
	app.Get("/jobs/:id", jobHandler.Get)
	app.Get("/clips", clipHandler.List)

	// WebSocket route
	app.Get("/ws/jobs/:id", streamHandler.Upgrade, websocket.New(streamHandler.Handle))

	// Locally published clips
	app.Static("/files", cfg.Storage.OutputDir)

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.Lines(),
		})
	})

	// Start server
	addr := cfg.Addr()
	logger.Infof("Server starting on %s", addr)
	logger.Info("Endpoints:")
	logger.Info("   POST /jobs         - Submit a YouTube URL for clipping")
	logger.Info("   GET  /jobs         - List jobs")
	logger.Info("   GET  /jobs/:id     - Get job status and clips")
	logger.Info("   GET  /ws/jobs/:id  - WebSocket job status stream")
	logger.Info("   GET  /clips        - List published clips")
	logger.Info("   GET  /files/*      - Locally published clips")
	logger.Info("   GET  /logs         - View server logs")
	logger.Info("   GET  /health       - Health check")

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Warnf("HTTP shutdown: %v", err)
		}
		if err := supervisor.Shutdown(ctx); err != nil {
			logger.Warnf("Jobs still running at shutdown: %v", err)
		}
	}()

	if err := app.Listen(addr); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
	<-stopped
}

// newPublisher returns the configured clip publisher. Google Drive falls back
// to local publishing when it cannot be initialized.
func newPublisher(cfg *config.Config) clip.Publisher {
	local := storage.NewLocalPublisher(cfg.Storage.OutputDir, cfg.Server.PublicBaseURL)
	if cfg.Storage.Publisher != config.PublisherGDrive {
		logger.Infof("Publishing clips locally to %s", cfg.Storage.OutputDir)
		return local
	}

	drive, err := storage.NewDrivePublisher(context.Background(),
		cfg.GoogleDrive.CredentialsFile,
		cfg.GoogleDrive.TokenFile,
		cfg.GoogleDrive.FolderName,
	)
	if err != nil {
		logger.Warnf("Google Drive not available: %v", err)
		logger.Warn("Clips will only be published locally")
		return local
	}
	logger.Info("Google Drive integration enabled")
	return drive
}
