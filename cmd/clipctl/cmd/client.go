package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/storage"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// ClipClient handles API calls to the clip server.
type ClipClient struct {
	http *resty.Client
}

// NewClipClient creates a new client for the server at baseURL.
func NewClipClient(baseURL string) *ClipClient {
	return &ClipClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SubmitResponse is returned by POST /jobs.
type SubmitResponse struct {
	JobID  string          `json:"job_id"`
	Status types.JobStatus `json:"status"`
}

// Submit sends POST /jobs for a video URL.
func (c *ClipClient) Submit(url string) (*SubmitResponse, error) {
	var out SubmitResponse
	resp, err := c.http.R().
		SetBody(map[string]string{"url": url}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/jobs")
	if err := apiError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Job fetches GET /jobs/:id.
func (c *ClipClient) Job(id string) (*types.Job, error) {
	var out types.Job
	resp, err := c.http.R().
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/jobs/{id}")
	if err := apiError(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Jobs fetches GET /jobs.
func (c *ClipClient) Jobs() ([]types.Job, error) {
	var out struct {
		Jobs []types.Job `json:"jobs"`
	}
	resp, err := c.http.R().SetResult(&out).SetError(&errorBody{}).Get("/jobs")
	if err := apiError(resp, err); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Clips fetches GET /clips.
func (c *ClipClient) Clips(limit int) ([]storage.ClipRecord, error) {
	var out struct {
		Clips []storage.ClipRecord `json:"clips"`
	}
	resp, err := c.http.R().
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/clips")
	if err := apiError(resp, err); err != nil {
		return nil, err
	}
	return out.Clips, nil
}

// WaitForJob polls the job until it reaches a terminal status. onChange is
// called for every observed status change.
func (c *ClipClient) WaitForJob(id string, interval, timeout time.Duration, onChange func(*types.Job)) (*types.Job, error) {
	deadline := time.Now().Add(timeout)
	var last types.JobStatus
	for {
		job, err := c.Job(id)
		if err != nil {
			return nil, err
		}
		if job.Status != last {
			last = job.Status
			if onChange != nil {
				onChange(job)
			}
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		if timeout > 0 && time.Now().After(deadline) {
			return job, fmt.Errorf("timed out waiting for job %s (last status: %s)", id, job.Status)
		}
		time.Sleep(interval)
	}
}

func apiError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
	}
	return apiErr
}
