package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// OpenAITranscriber calls the OpenAI audio transcription endpoint
type OpenAITranscriber struct {
	client *resty.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber against baseURL (e.g. https://api.openai.com/v1)
func NewOpenAITranscriber(baseURL, apiKey, model string, timeout time.Duration) *OpenAITranscriber {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(timeout)

	return &OpenAITranscriber{client: client, model: model}
}

// verboseResponse matches the verbose_json response format
type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads audioPath and returns its timed segments
func (o *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	var out verboseResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"model":                     o.model,
			"response_format":           "verbose_json",
			"timestamp_granularities[]": "segment",
		}).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	segments := make([]types.Segment, len(out.Segments))
	for i, seg := range out.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	duration := out.Duration
	if duration == 0 {
		duration = lastEnd(segments)
	}

	logger.Debugf("Transcription completed: %d segments, %.2fs duration", len(segments), duration)
	return &types.Transcript{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
		Duration: duration,
		Segments: segments,
	}, nil
}
