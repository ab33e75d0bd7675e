package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/topic-clipper/internal/storage"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

type fakeJobs struct {
	mu        sync.Mutex
	submitErr error
	jobs      map[string]types.Job
	submitted []string
}

func (f *fakeJobs) Submit(sourceURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, sourceURL)
	return "job-1", nil
}

func (f *fakeJobs) Status(id string) (types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return types.Job{}, types.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobs) Jobs() []types.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.Job{}
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out
}

type fakeCatalog struct {
	clips     []storage.ClipRecord
	err       error
	lastLimit int
}

func (f *fakeCatalog) ListClips(limit int) ([]storage.ClipRecord, error) {
	f.lastLimit = limit
	return f.clips, f.err
}

func newTestApp(jobs JobService, catalog ClipLister) *fiber.App {
	app := fiber.New()
	jh := NewJobHandler(jobs)
	app.Post("/jobs", jh.Submit)
	app.Get("/jobs", jh.List)
	app.Get("/jobs/:id", jh.Get)
	app.Get("/clips", NewClipHandler(catalog).List)
	sh := NewStreamHandler(jobs, 0)
	app.Get("/ws/jobs/:id", sh.Upgrade)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp.StatusCode, out
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSubmitAccepted(t *testing.T) {
	jobs := &fakeJobs{}
	status, body := doJSON(t, newTestApp(jobs, &fakeCatalog{}), postJSON(`{"url":"https://youtu.be/abc"}`))

	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, []string{"https://youtu.be/abc"}, jobs.submitted)
}

func TestSubmitInvalidSource(t *testing.T) {
	jobs := &fakeJobs{submitErr: fmt.Errorf("%w: %q", types.ErrInvalidSource, "x")}
	status, body := doJSON(t, newTestApp(jobs, &fakeCatalog{}), postJSON(`{"url":"x"}`))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ERR_INVALID_SOURCE", body["code"])
}

func TestSubmitInvalidBody(t *testing.T) {
	app := newTestApp(&fakeJobs{}, &fakeCatalog{})
	for _, body := range []string{``, `{"url":`, `[1,2]`} {
		status, out := doJSON(t, app, postJSON(body))
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, "ERR_INVALID_BODY", out["code"], body)
	}
}

func TestSubmitInternalError(t *testing.T) {
	status, body := doJSON(t, newTestApp(&fakeJobs{submitErr: errors.New("disk full")}, &fakeCatalog{}),
		postJSON(`{"url":"https://youtu.be/abc"}`))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "ERR_INTERNAL", body["code"])
}

func TestGetJob(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]types.Job{
		"job-1": {
			ID:     "job-1",
			Status: types.StatusCompleted,
			Clips:  []types.ClipRef{{Title: "Intro", URL: "http://x/1"}},
		},
	}}
	app := newTestApp(jobs, &fakeCatalog{})

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Len(t, body["clips"], 1)
	assert.NotContains(t, body, "error")

	status, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ERR_NOT_FOUND", body["code"])
}

func TestListJobs(t *testing.T) {
	jobs := &fakeJobs{jobs: map[string]types.Job{"a": {ID: "a"}, "b": {ID: "b"}}}
	status, body := doJSON(t, newTestApp(jobs, &fakeCatalog{}), httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["jobs"], 2)
}

func TestListClips(t *testing.T) {
	catalog := &fakeCatalog{clips: []storage.ClipRecord{{JobID: "job-1", Title: "Intro", URL: "http://x/1"}}}
	app := newTestApp(&fakeJobs{}, catalog)

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/clips?limit=5", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["clips"], 1)
	assert.Equal(t, 5, catalog.lastLimit)

	status, _ = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/clips", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, storage.DefaultListLimit, catalog.lastLimit)

	status, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/clips?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ERR_INVALID_LIMIT", body["code"])

	catalog.err = errors.New("db closed")
	status, _ = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/clips", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestStreamUpgradeRequired(t *testing.T) {
	app := newTestApp(&fakeJobs{}, &fakeCatalog{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/jobs/job-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestWatchJobSendsEachStatusOnce(t *testing.T) {
	statuses := []types.JobStatus{
		types.StatusQueued, types.StatusQueued, types.StatusFetching,
		types.StatusFetching, types.StatusTranscribing, types.StatusCompleted,
	}
	calls := 0
	get := func(id string) (types.Job, error) {
		st := statuses[calls]
		if calls < len(statuses)-1 {
			calls++
		}
		return types.Job{ID: id, Status: st}, nil
	}

	var sent []types.JobStatus
	err := WatchJob(context.Background(), get, "job-1", time.Millisecond, func(j types.Job) error {
		sent = append(sent, j.Status)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []types.JobStatus{
		types.StatusQueued, types.StatusFetching, types.StatusTranscribing, types.StatusCompleted,
	}, sent)
}

func TestWatchJobStopsOnErrors(t *testing.T) {
	get := func(id string) (types.Job, error) { return types.Job{}, types.ErrNotFound }
	err := WatchJob(context.Background(), get, "x", time.Millisecond, func(types.Job) error { return nil })
	assert.ErrorIs(t, err, types.ErrNotFound)

	running := func(id string) (types.Job, error) { return types.Job{Status: types.StatusClipping}, nil }
	sendErr := errors.New("broken pipe")
	err = WatchJob(context.Background(), running, "x", time.Millisecond, func(types.Job) error { return sendErr })
	assert.ErrorIs(t, err, sendErr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = WatchJob(ctx, running, "x", time.Millisecond, func(types.Job) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
