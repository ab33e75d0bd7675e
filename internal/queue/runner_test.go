package queue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/topic-clipper/internal/clip"
	"github.com/codebuildervaibhav/topic-clipper/internal/segment"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

type fakeFetcher struct {
	err      error
	panicMsg string
	mu       sync.Mutex
	dirs     []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dir string) (string, error) {
	f.mu.Lock()
	f.dirs = append(f.dirs, dir)
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(dir, "source.mp4")
	return path, os.WriteFile(path, []byte("video"), 0o644)
}

type fakeAudio struct{ err error }

func (f *fakeAudio) ExtractAudio(ctx context.Context, videoPath, dir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(dir, "audio.mp3")
	return path, os.WriteFile(path, []byte("audio"), 0o644)
}

type fakeBackend struct {
	err    error
	cancel context.CancelFunc
}

func (f *fakeBackend) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	if f.cancel != nil {
		f.cancel()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &types.Transcript{
		Duration: 300,
		Segments: []types.Segment{{Start: 0, End: 300, Text: "a talk about things"}},
	}, nil
}

type fakeSegmenter struct {
	topics []types.TopicCandidate
	err    error
}

func (f *fakeSegmenter) Segment(ctx context.Context, transcript string) ([]types.TopicCandidate, error) {
	return f.topics, f.err
}

// fakeTrimmer fails for any title listed in failTitles
type fakeTrimmer struct {
	failTitles map[string]bool
}

func (f *fakeTrimmer) Trim(ctx context.Context, videoPath string, start, end int, outputPath string) error {
	for title := range f.failTitles {
		if strings.Contains(filepath.Base(outputPath), clip.SanitizeTitle(title)) {
			return errors.New("encoder error")
		}
	}
	return os.WriteFile(outputPath, []byte("clip"), 0o644)
}

type fakePublisher struct{}

func (fakePublisher) Publish(ctx context.Context, jobID, localPath string) (string, error) {
	return "https://files.example.com/" + jobID + "/" + filepath.Base(localPath), nil
}

type pipelineFixture struct {
	store     *Store
	fetcher   *fakeFetcher
	audio     *fakeAudio
	backend   *fakeBackend
	segmenter *fakeSegmenter
	trimmer   *fakeTrimmer
	tempDir   string
}

func newFixture(t *testing.T) *pipelineFixture {
	return &pipelineFixture{
		store:     NewStore(),
		fetcher:   &fakeFetcher{},
		audio:     &fakeAudio{},
		backend:   &fakeBackend{},
		segmenter: &fakeSegmenter{},
		trimmer:   &fakeTrimmer{},
		tempDir:   t.TempDir(),
	}
}

func (f *pipelineFixture) runner() *Runner {
	return NewRunner(
		f.store,
		f.fetcher,
		f.audio,
		f.backend,
		segment.NewPlanner(f.segmenter),
		clip.NewExtractor(f.trimmer, fakePublisher{}, nil),
		f.tempDir,
	)
}

func (f *pipelineFixture) run(t *testing.T, ctx context.Context) types.Job {
	t.Helper()
	id := f.store.Create("https://youtu.be/abc")
	f.runner().Run(ctx, id)
	job, err := f.store.Get(id)
	require.NoError(t, err)
	return job
}

func assertWorkspacesRemoved(t *testing.T, f *pipelineFixture) {
	t.Helper()
	require.NotEmpty(t, f.fetcher.dirs)
	for _, dir := range f.fetcher.dirs {
		assert.NoDirExists(t, dir)
	}
}

func threeTopics() []types.TopicCandidate {
	return []types.TopicCandidate{
		{Title: "Intro", StartTime: "0:00", EndTime: "1:00"},
		{Title: "Main", StartTime: "1:00", EndTime: "3:30"},
		{Title: "Outro", StartTime: "3:30", EndTime: "5:00"},
	}
}

func TestRunCompletesWithAllClips(t *testing.T) {
	f := newFixture(t)
	f.segmenter.topics = threeTopics()

	job := f.run(t, context.Background())

	assert.Equal(t, types.StatusCompleted, job.Status)
	assert.Empty(t, job.Error)
	require.Len(t, job.Clips, 3)
	assert.Equal(t, "Intro", job.Clips[0].Title)
	assert.Equal(t, "https://files.example.com/"+job.ID+"/clip_3_Outro.mp4", job.Clips[2].URL)
	assert.True(t, strings.HasPrefix(filepath.Base(f.fetcher.dirs[0]), "job-"+job.ID+"-"))
	assertWorkspacesRemoved(t, f)
}

func TestRunPartialClipFailure(t *testing.T) {
	f := newFixture(t)
	f.segmenter.topics = threeTopics()
	f.trimmer.failTitles = map[string]bool{"Intro": true, "Outro": true}

	job := f.run(t, context.Background())

	assert.Equal(t, types.StatusCompleted, job.Status)
	require.Len(t, job.Clips, 1)
	assert.Equal(t, "Main", job.Clips[0].Title)
	assertWorkspacesRemoved(t, f)
}

func TestRunAllClipsFailed(t *testing.T) {
	f := newFixture(t)
	f.segmenter.topics = threeTopics()
	f.trimmer.failTitles = map[string]bool{"Intro": true, "Main": true, "Outro": true}

	job := f.run(t, context.Background())

	assert.Equal(t, types.StatusFailed, job.Status)
	assert.Contains(t, job.Error, types.ErrClipFailed.Error())
	assert.Empty(t, job.Clips)
	assertWorkspacesRemoved(t, f)
}

func TestRunNoSegmentsCompletesEmpty(t *testing.T) {
	f := newFixture(t)

	job := f.run(t, context.Background())

	assert.Equal(t, types.StatusCompleted, job.Status)
	assert.NotNil(t, job.Clips)
	assert.Empty(t, job.Clips)
	assertWorkspacesRemoved(t, f)
}

func TestRunStageFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *pipelineFixture)
		kind  error
	}{
		{"fetch", func(f *pipelineFixture) { f.fetcher.err = errors.New("video unavailable") }, types.ErrFetchFailed},
		{"audio", func(f *pipelineFixture) { f.audio.err = errors.New("no audio stream") }, types.ErrAudioExtractionFailed},
		{"transcribe", func(f *pipelineFixture) { f.backend.err = errors.New("quota") }, types.ErrTranscriptionFailed},
		{"segment", func(f *pipelineFixture) { f.segmenter.err = errors.New("timeout") }, types.ErrSegmentationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.segmenter.topics = threeTopics()
			tt.setup(f)

			job := f.run(t, context.Background())

			assert.Equal(t, types.StatusFailed, job.Status)
			assert.Contains(t, job.Error, tt.kind.Error())
			assert.Empty(t, job.Clips)
			assertWorkspacesRemoved(t, f)
		})
	}
}

func TestRunRecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	f.fetcher.panicMsg = "nil map"

	job := f.run(t, context.Background())

	assert.Equal(t, types.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "nil map")
	assertWorkspacesRemoved(t, f)
}

func TestRunCancelledBetweenStages(t *testing.T) {
	f := newFixture(t)
	f.segmenter.topics = threeTopics()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.backend.cancel = cancel

	job := f.run(t, ctx)

	assert.Equal(t, types.StatusFailed, job.Status)
	assert.Contains(t, job.Error, types.ErrCancelled.Error())
	assertWorkspacesRemoved(t, f)
}

func TestRunUnknownJob(t *testing.T) {
	f := newFixture(t)
	f.runner().Run(context.Background(), "missing")
	assert.Empty(t, f.fetcher.dirs)
}

func TestClipStagingDir(t *testing.T) {
	assert.Equal(t, filepath.Join("tmp", "clips", "job-1"), ClipStagingDir("tmp", "job-1"))
}
