// Package transcription provides the speech-to-text collaborators.
package transcription

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/codebuildervaibhav/topic-clipper/internal/timecode"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// Backend is a pluggable transcription backend
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error)
}

// FullText joins the segment texts in order with single spaces
func FullText(t *types.Transcript) string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(t.Text)
	}
	return strings.Join(parts, " ")
}

// WriteTranscriptFile writes one "Start: m:ss, End: m:ss, Text: ..." line per segment
func WriteTranscriptFile(path string, t *types.Transcript) error {
	var b strings.Builder
	for _, seg := range t.Segments {
		fmt.Fprintf(&b, "Start: %s, End: %s, Text: %s\n",
			timecode.ToDisplay(wholeSeconds(seg.Start)),
			timecode.ToDisplay(wholeSeconds(seg.End)),
			strings.TrimSpace(seg.Text))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

func wholeSeconds(f float64) int {
	if f < 0 {
		return 0
	}
	return int(f)
}

// lastEnd returns the end of the final segment, used as the duration
func lastEnd(segments []types.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
