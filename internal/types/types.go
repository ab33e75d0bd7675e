package types

import "time"

// JobStatus is the lifecycle state of a clipping job
type JobStatus string

// Job status constants, in pipeline order
const (
	StatusQueued          JobStatus = "queued"
	StatusFetching        JobStatus = "fetching"
	StatusExtractingAudio JobStatus = "extracting_audio"
	StatusTranscribing    JobStatus = "transcribing"
	StatusSegmenting      JobStatus = "segmenting"
	StatusClipping        JobStatus = "clipping"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
)

// statusRank orders the forward path. failed sits outside it.
var statusRank = map[JobStatus]int{
	StatusQueued:          0,
	StatusFetching:        1,
	StatusExtractingAudio: 2,
	StatusTranscribing:    3,
	StatusSegmenting:      4,
	StatusClipping:        5,
	StatusCompleted:       6,
}

// Valid reports whether s is one of the known statuses
func (s JobStatus) Valid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no transition can leave s
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the state machine.
// Staying in the same non-terminal state is allowed; skipping forward is allowed
// because a stage may legitimately produce nothing for the next one.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return statusRank[next] >= statusRank[s]
}

// Job is one end-to-end request to turn a source video into published clips
type Job struct {
	ID        string    `json:"job_id"`
	SourceURL string    `json:"source_url"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Clips     []ClipRef `json:"clips"`
	Error     string    `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand out to readers
func (j Job) Clone() Job {
	out := j
	out.Clips = make([]ClipRef, len(j.Clips))
	copy(out.Clips, j.Clips)
	return out
}

// ClipRef points at one published clip
type ClipRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TopicCandidate is a raw topic as returned by the segmentation model
type TopicCandidate struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// TopicSegment is a validated topic interval. Times are in "m:ss" display form.
type TopicSegment struct {
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SourceMedia holds the local artifacts of one pipeline run
type SourceMedia struct {
	JobID     string
	Dir       string
	ClipDir   string
	VideoPath string
	AudioPath string
}

// Transcript represents the output of a transcription backend
type Transcript struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
