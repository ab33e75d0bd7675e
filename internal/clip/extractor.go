// Package clip trims one topic out of a source video and publishes it.
package clip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/timecode"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

const maxTitleRunes = 100

// Trimmer cuts a bounded sub-clip out of a local video
type Trimmer interface {
	Trim(ctx context.Context, videoPath string, start, end int, outputPath string) error
}

// Publisher uploads a local artifact and returns its public locator
type Publisher interface {
	Publish(ctx context.Context, jobID, localPath string) (string, error)
}

// Catalog records published clips. Optional.
type Catalog interface {
	RecordClip(jobID, title, url string, startSeconds, endSeconds int) error
}

// Extractor produces one published clip per topic segment
type Extractor struct {
	trimmer   Trimmer
	publisher Publisher
	catalog   Catalog
}

// NewExtractor creates an extractor. catalog may be nil.
func NewExtractor(trimmer Trimmer, publisher Publisher, catalog Catalog) *Extractor {
	return &Extractor{
		trimmer:   trimmer,
		publisher: publisher,
		catalog:   catalog,
	}
}

// Extract trims seg out of src, publishes it and returns the reference.
// index is the 1-based position of seg and is part of the artifact name.
// The local clip is removed only after a successful upload; on upload failure
// it stays in src.ClipDir for inspection.
func (e *Extractor) Extract(ctx context.Context, src types.SourceMedia, index int, seg types.TopicSegment) (types.ClipRef, error) {
	start, err := timecode.ToSeconds(seg.StartTime)
	if err != nil {
		return types.ClipRef{}, fmt.Errorf("%w: %v", types.ErrClipFailed, err)
	}
	end, err := timecode.ToSeconds(seg.EndTime)
	if err != nil {
		return types.ClipRef{}, fmt.Errorf("%w: %v", types.ErrClipFailed, err)
	}
	if start >= end {
		return types.ClipRef{}, fmt.Errorf("%w: empty interval %s-%s", types.ErrClipFailed, seg.StartTime, seg.EndTime)
	}

	if err := os.MkdirAll(src.ClipDir, 0755); err != nil {
		return types.ClipRef{}, fmt.Errorf("%w: failed to create clip directory: %v", types.ErrClipFailed, err)
	}
	outputPath := filepath.Join(src.ClipDir, ArtifactName(index, seg.Title))

	log := logger.WithJob(src.JobID)
	log.Infof("Creating clip: %s (%s-%s)", filepath.Base(outputPath), seg.StartTime, seg.EndTime)

	if err := e.trimmer.Trim(ctx, src.VideoPath, start, end, outputPath); err != nil {
		return types.ClipRef{}, fmt.Errorf("%w: trim %q: %v", types.ErrClipFailed, seg.Title, err)
	}

	url, err := e.publisher.Publish(ctx, src.JobID, outputPath)
	if err != nil {
		log.Warnf("Upload failed, keeping %s for inspection", outputPath)
		return types.ClipRef{}, fmt.Errorf("%w: publish %q: %v", types.ErrClipFailed, seg.Title, err)
	}

	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to remove published clip %s: %v", outputPath, err)
	}

	if e.catalog != nil {
		if err := e.catalog.RecordClip(src.JobID, seg.Title, url, start, end); err != nil {
			log.Warnf("Failed to record clip in catalog: %v", err)
		}
	}

	return types.ClipRef{Title: seg.Title, URL: url}, nil
}

// ArtifactName builds the stable file name of a clip, e.g. clip_1_Intro_to_Go.mp4
func ArtifactName(index int, title string) string {
	return fmt.Sprintf("clip_%d_%s.mp4", index, SanitizeTitle(title))
}

// SanitizeTitle keeps letters, digits, spaces and underscores, replaces
// everything else with an underscore, then turns spaces into underscores.
func SanitizeTitle(title string) string {
	var b strings.Builder
	n := 0
	for _, r := range title {
		if n == maxTitleRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		n++
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
