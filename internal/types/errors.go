package types

import (
	"errors"
	"fmt"
)

// Submission and lookup errors
var (
	ErrInvalidSource = errors.New("invalid source url")
	ErrNotFound      = errors.New("job not found")
)

// Stage failures. All but ErrClipFailed abort the job.
var (
	ErrFetchFailed             = errors.New("fetch failed")
	ErrAudioExtractionFailed   = errors.New("audio extraction failed")
	ErrTranscriptionFailed     = errors.New("transcription failed")
	ErrSegmentationUnavailable = errors.New("segmentation unavailable")
	ErrClipFailed              = errors.New("clip failed")
	ErrCancelled               = errors.New("job cancelled")
)

// ErrInvalidTransition is returned by the job store for illegal state changes
var ErrInvalidTransition = errors.New("invalid status transition")

// StageError is a stage-aware failure carrying its kind and underlying cause
type StageError struct {
	Stage JobStatus
	Kind  error
	Err   error
}

// NewStageError wraps err as a failure of the given stage
func NewStageError(stage JobStatus, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	if errors.Is(e.Err, e.Kind) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause for errors.Is / errors.As
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
