// Package segment turns a transcript into validated topic intervals.
package segment

import (
	"context"
	"fmt"

	"github.com/codebuildervaibhav/topic-clipper/internal/logger"
	"github.com/codebuildervaibhav/topic-clipper/internal/timecode"
	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// Segmenter is the semantic segmentation collaborator
type Segmenter interface {
	Segment(ctx context.Context, transcript string) ([]types.TopicCandidate, error)
}

// Planner validates segmenter output into TopicSegments
type Planner struct {
	segmenter Segmenter
}

// NewPlanner creates a planner backed by segmenter
func NewPlanner(segmenter Segmenter) *Planner {
	return &Planner{segmenter: segmenter}
}

// Plan returns the valid topics of transcript in the order the segmenter produced them.
// An empty result is not an error.
func (p *Planner) Plan(ctx context.Context, transcript string) ([]types.TopicSegment, error) {
	candidates, err := p.segmenter.Segment(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSegmentationUnavailable, err)
	}

	segments := make([]types.TopicSegment, 0, len(candidates))
	for i, c := range candidates {
		start, err := timecode.ToSeconds(c.StartTime)
		if err != nil {
			logger.Warnf("Discarding topic %d (%q): bad start time: %v", i+1, c.Title, err)
			continue
		}
		end, err := timecode.ToSeconds(c.EndTime)
		if err != nil {
			logger.Warnf("Discarding topic %d (%q): bad end time: %v", i+1, c.Title, err)
			continue
		}
		if start >= end {
			logger.Warnf("Discarding topic %d (%q): start %s is not before end %s", i+1, c.Title, c.StartTime, c.EndTime)
			continue
		}

		segments = append(segments, types.TopicSegment{
			Title:     c.Title,
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
		})
	}

	return segments, nil
}
