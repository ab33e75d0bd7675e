package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

const systemPrompt = "You are an expert at identifying coherent topic segments in educational videos."

const userPromptTemplate = `Analyse this video transcript and identify distinct topic segments that would work well as
standalone clips for platforms like TikTok. For each segment, provide:
1. A descriptive title
2. The start time
3. The end time

Format your response as JSON with the following structure:
{
    "topics": [
        {
            "title": "Topic Title",
            "start_time": "m:ss",
            "end_time": "m:ss"
        }
    ]
}

Transcript:
%s
`

// errMalformed marks a response that doesn't match the topics schema
var errMalformed = errors.New("malformed segmentation response")

// OpenAISegmenter asks a chat completion model for topic segments
type OpenAISegmenter struct {
	client      *resty.Client
	model       string
	temperature float64
}

// NewOpenAISegmenter creates a segmenter against baseURL (e.g. https://api.openai.com/v1)
func NewOpenAISegmenter(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *OpenAISegmenter {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(timeout)

	return &OpenAISegmenter{client: client, model: model, temperature: temperature}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// topicsPayload uses pointers so missing fields can be told apart from empty ones
type topicsPayload struct {
	Topics *[]struct {
		Title     *string `json:"title"`
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
	} `json:"topics"`
}

// Segment sends transcript to the model and returns its raw topic candidates
func (s *OpenAISegmenter) Segment(ctx context.Context, transcript string) ([]types.TopicCandidate, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, transcript)},
		},
		Temperature:    s.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("segmentation request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", errMalformed)
	}

	return ParseTopics(out.Choices[0].Message.Content)
}

// ParseTopics decodes a {"topics": [...]} document. Every topic must carry
// title, start_time and end_time; otherwise the whole document is rejected.
func ParseTopics(content string) ([]types.TopicCandidate, error) {
	var payload topicsPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if payload.Topics == nil {
		return nil, fmt.Errorf("%w: missing topics", errMalformed)
	}

	candidates := make([]types.TopicCandidate, 0, len(*payload.Topics))
	for i, t := range *payload.Topics {
		if t.Title == nil || t.StartTime == nil || t.EndTime == nil {
			return nil, fmt.Errorf("%w: topic %d is missing a required field", errMalformed, i+1)
		}
		candidates = append(candidates, types.TopicCandidate{
			Title:     *t.Title,
			StartTime: *t.StartTime,
			EndTime:   *t.EndTime,
		})
	}
	return candidates, nil
}
