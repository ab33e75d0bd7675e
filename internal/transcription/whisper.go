package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/media"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper for local transcription
type WhisperTranscriber struct {
	modelName  string
	language   string
	whisperCmd string
	runner     media.CommandRunner
	mu         sync.Mutex // one local model run at a time
}

// NewWhisperTranscriber creates a transcriber using `python -m whisper`
func NewWhisperTranscriber(model, language string, runner media.CommandRunner) *WhisperTranscriber {
	if runner == nil {
		runner = media.ExecRunner{}
	}

	logger.Infof("Initializing Python Whisper with model: %s", modelName(model))
	return &WhisperTranscriber{
		modelName:  modelName(model),
		language:   language,
		whisperCmd: "python",
		runner:     runner,
	}
}

// modelName maps a model name or ggml path ("ggml-small.bin") to a whisper model size
func modelName(model string) string {
	m := strings.ToLower(model)
	for _, size := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(m, size) {
			return size
		}
	}
	return "small"
}

// Transcribe processes an audio file and returns the transcript.
// Whisper output is written next to the audio file so concurrent jobs never share it.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	outputDir := filepath.Join(filepath.Dir(audioPath), "whisper_output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	args := []string{"-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	if wt.language != "" && !strings.EqualFold(wt.language, "auto") {
		args = append(args, "--language", wt.language)
	}

	res, err := wt.runner.Run(ctx, wt.whisperCmd, args...)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w\nOutput: %s", err, strings.TrimSpace(res.Stderr))
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonData, err := os.ReadFile(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	var whisperOutput WhisperOutput
	if err := json.Unmarshal(jsonData, &whisperOutput); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}

	segments := make([]types.Segment, len(whisperOutput.Segments))
	for i, seg := range whisperOutput.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	logger.Debugf("Transcription completed: %d segments, %.2fs duration", len(segments), lastEnd(segments))
	return &types.Transcript{
		Text:     strings.TrimSpace(whisperOutput.Text),
		Language: whisperOutput.Language,
		Duration: lastEnd(segments),
		Segments: segments,
	}, nil
}

// WhisperOutput matches Python Whisper's JSON output format
type WhisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []WhisperSegment `json:"segments"`
}

// WhisperSegment represents a timestamped segment from Whisper
type WhisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
