package models

import (
	"time"

	"github.com/google/uuid"
)

// Enums
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// WordTimestamp is a single caption word with its display span in seconds.
// For any emitted sequence the spans are non-decreasing and the last End
// equals the narration's total duration exactly.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
}

// AudioAsset describes one synthesized narration segment on disk.
// EffectiveSec is the raw length with trailing dead air trimmed; it is never
// larger than RawSec and never smaller than the visibility floor.
type AudioAsset struct {
	Path         string
	RawSec       float64
	EffectiveSec float64
}

// TitleLayout is the wrapped banner title plus the derived box geometry.
type TitleLayout struct {
	Lines         []string
	BoxHeight     int
	LineHeight    int
	PaddingTop    int
	PaddingBottom int
}

// BackgroundMode selects how a category's background track is produced.
type BackgroundMode string

const (
	BackgroundModeSingle  BackgroundMode = "single"
	BackgroundModeMontage BackgroundMode = "montage"
)

// BackgroundSelection is the resolved background track for one job.
// Single mode carries one SourceURL used as-is; montage mode carries the
// local path of the concatenated track plus the segment URLs it was cut from.
type BackgroundSelection struct {
	Mode        BackgroundMode
	SourceURL   string
	LocalPath   string
	SegmentURLs []string
	TotalSec    float64
}

// RenderResult is what the render engine hands back.
type RenderResult struct {
	OutputPath string
	Degraded   bool // true when the minimal fallback graph produced the output
}

// VideoRequest is the payload carried on the queue for one video job.
// StoryText may contain an opening/story split marker line ("---"); the part
// before the marker is narrated over the banner, the rest is the story proper.
type VideoRequest struct {
	Title              string `json:"title"`
	StoryText          string `json:"story_text"`
	BackgroundCategory string `json:"background_category"`
	VoiceID            string `json:"voice_id,omitempty"`
	Subreddit          string `json:"subreddit,omitempty"`
	Author             string `json:"author,omitempty"`
}

// API DTOs

type CreateVideoRequest struct {
	Title              string `json:"title"`
	StoryText          string `json:"story_text"`
	BackgroundCategory string `json:"background_category,omitempty"`
	VoiceID            string `json:"voice_id,omitempty"`
	Subreddit          string `json:"subreddit,omitempty"`
	Author             string `json:"author,omitempty"`
}

type CreateVideoResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

// JobState is the polled status record kept in the job store until expiry.
type JobState struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"` // 0-100
	OutputURL string    `json:"output_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
