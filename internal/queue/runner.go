package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/codebuildervaibhav/topic-clipper/internal/clip"
	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/segment"
	"github.com/codebuildervaibhav/topic-clipper/internal/transcription"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// Artifact names inside a job workspace
const (
	TranscriptFileName = "transcript.txt"
	SegmentsFileName   = "topic_segments.json"
	ClipStagingDirName = "clips"
)

// Fetcher downloads a remote source into dir and returns the local video path
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (string, error)
}

// AudioExtractor derives an audio track from a video
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, dir string) (string, error)
}

// Runner drives one job through every pipeline stage
type Runner struct {
	store     *Store
	fetcher   Fetcher
	audio     AudioExtractor
	backend   transcription.Backend
	planner   *segment.Planner
	extractor *clip.Extractor
	tempDir   string
}

// NewRunner wires the pipeline collaborators. Workspaces are created under tempDir.
func NewRunner(
	store *Store,
	fetcher Fetcher,
	audio AudioExtractor,
	backend transcription.Backend,
	planner *segment.Planner,
	extractor *clip.Extractor,
	tempDir string,
) *Runner {
	return &Runner{
		store:     store,
		fetcher:   fetcher,
		audio:     audio,
		backend:   backend,
		planner:   planner,
		extractor: extractor,
		tempDir:   tempDir,
	}
}

// ClipStagingDir is where clips of jobID are written before upload. It lives
// outside the job workspace so failed uploads survive workspace removal.
func ClipStagingDir(tempDir, jobID string) string {
	return filepath.Join(tempDir, ClipStagingDirName, jobID)
}

// Run processes the job to a terminal state. It never returns an error:
// every failure ends up on the job record.
func (r *Runner) Run(ctx context.Context, jobID string) {
	log := logger.WithJob(jobID)

	job, err := r.store.Get(jobID)
	if err != nil {
		log.Errorf("Cannot run job: %v", err)
		return
	}

	workspace := ""
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("PANIC processing job: %v\n%s", rec, string(debug.Stack()))
			r.fail(jobID, fmt.Errorf("pipeline panic: %v", rec))
		}
		r.cleanupWorkspace(jobID, workspace)
	}()

	if err := os.MkdirAll(r.tempDir, 0755); err != nil {
		r.fail(jobID, types.NewStageError(types.StatusFetching, types.ErrFetchFailed, err))
		return
	}
	workspace, err = os.MkdirTemp(r.tempDir, "job-"+jobID+"-")
	if err != nil {
		r.fail(jobID, types.NewStageError(types.StatusFetching, types.ErrFetchFailed, err))
		return
	}

	src := types.SourceMedia{
		JobID:   jobID,
		Dir:     workspace,
		ClipDir: ClipStagingDir(r.tempDir, jobID),
	}

	if err := r.process(ctx, job.SourceURL, &src); err != nil {
		r.fail(jobID, err)
	}
}

// process runs the stages in order. A non-nil error fails the job.
func (r *Runner) process(ctx context.Context, sourceURL string, src *types.SourceMedia) error {
	log := logger.WithJob(src.JobID)
	var err error

	// Stage 1: fetch
	if err := r.enter(ctx, src.JobID, types.StatusFetching); err != nil {
		return err
	}
	log.Infof("Fetching %s", sourceURL)
	src.VideoPath, err = r.fetcher.Fetch(ctx, sourceURL, src.Dir)
	if err != nil {
		return types.NewStageError(types.StatusFetching, types.ErrFetchFailed, err)
	}

	// Stage 2: audio
	if err := r.enter(ctx, src.JobID, types.StatusExtractingAudio); err != nil {
		return err
	}
	src.AudioPath, err = r.audio.ExtractAudio(ctx, src.VideoPath, src.Dir)
	if err != nil {
		return types.NewStageError(types.StatusExtractingAudio, types.ErrAudioExtractionFailed, err)
	}

	// Stage 3: transcribe
	if err := r.enter(ctx, src.JobID, types.StatusTranscribing); err != nil {
		return err
	}
	transcript, err := r.backend.Transcribe(ctx, src.AudioPath)
	if err != nil {
		return types.NewStageError(types.StatusTranscribing, types.ErrTranscriptionFailed, err)
	}
	if err := transcription.WriteTranscriptFile(filepath.Join(src.Dir, TranscriptFileName), transcript); err != nil {
		log.Warnf("Failed to write transcript artifact: %v", err)
	}
	log.Infof("Transcribed %d segments (%.1fs)", len(transcript.Segments), transcript.Duration)

	// Stage 4: segment
	if err := r.enter(ctx, src.JobID, types.StatusSegmenting); err != nil {
		return err
	}
	segments, err := r.planner.Plan(ctx, transcription.FullText(transcript))
	if err != nil {
		return types.NewStageError(types.StatusSegmenting, types.ErrSegmentationUnavailable, err)
	}
	if err := writeSegmentsFile(filepath.Join(src.Dir, SegmentsFileName), segments); err != nil {
		log.Warnf("Failed to write segments artifact: %v", err)
	}
	log.Infof("Planned %d topic segments", len(segments))

	// Stage 5: clip
	if err := r.enter(ctx, src.JobID, types.StatusClipping); err != nil {
		return err
	}
	clips, err := r.clipAll(ctx, *src, segments)
	if err != nil {
		return err
	}

	if err := r.store.Complete(src.JobID, clips); err != nil {
		return err
	}
	log.Infof("Job completed with %d clips", len(clips))
	return nil
}

// enter checks for cancellation and moves the job to the next stage
func (r *Runner) enter(ctx context.Context, jobID string, stage types.JobStatus) error {
	if err := ctx.Err(); err != nil {
		return types.NewStageError(stage, types.ErrCancelled, err)
	}
	return r.store.Advance(jobID, stage)
}

// clipAll extracts segments sequentially. Individual failures are skipped;
// the stage fails only when there were segments and none produced a clip.
func (r *Runner) clipAll(ctx context.Context, src types.SourceMedia, segments []types.TopicSegment) ([]types.ClipRef, error) {
	log := logger.WithJob(src.JobID)
	clips := make([]types.ClipRef, 0, len(segments))
	var failures []string

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, types.NewStageError(types.StatusClipping, types.ErrCancelled, err)
		}
		ref, err := r.extractor.Extract(ctx, src, i+1, seg)
		if err != nil {
			log.Warnf("Skipping segment %d (%s): %v", i+1, seg.Title, err)
			failures = append(failures, err.Error())
			continue
		}
		clips = append(clips, ref)
	}

	if len(segments) > 0 && len(clips) == 0 {
		return nil, types.NewStageError(types.StatusClipping, types.ErrClipFailed,
			fmt.Errorf("all %d segments failed: %s", len(segments), strings.Join(failures, "; ")))
	}
	return clips, nil
}

// fail records err on the job. The job may already be terminal when a panic
// happens after completion; that is logged and ignored.
func (r *Runner) fail(jobID string, err error) {
	log := logger.WithJob(jobID)
	log.Errorf("Job failed: %v", err)

	if storeErr := r.store.Fail(jobID, err.Error()); storeErr != nil {
		if errors.Is(storeErr, types.ErrInvalidTransition) {
			log.Warnf("Failure not recorded: %v", storeErr)
			return
		}
		log.Errorf("Failed to record failure: %v", storeErr)
	}
}

// cleanupWorkspace removes the per-job directory
func (r *Runner) cleanupWorkspace(jobID, dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.WithJob(jobID).Warnf("Failed to cleanup workspace %s: %v", dir, err)
	}
}

func writeSegmentsFile(path string, segments []types.TopicSegment) error {
	data, err := json.MarshalIndent(map[string]interface{}{"topics": segments}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
