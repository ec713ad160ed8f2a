package queue

import (
	"path/filepath"
	"strings"
	"time"
)

// Status represents the lifecycle of a queue job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusSegmenting   Status = "segmenting"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusTranscribed,
	StatusSegmenting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ProcessingStatuses lists the statuses a job holds while a stage is running.
// Jobs stuck in one of these without a fresh heartbeat are reclaimable.
func ProcessingStatuses() []Status {
	return []Status{StatusTranscribing, StatusSegmenting}
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map processing statuses back to the status a
// reclaimed job should restart from.
var stageRollbackTransitions = []statusTransition{
	{from: StatusTranscribing, to: StatusPending},
	{from: StatusSegmenting, to: StatusTranscribed},
}

// IsValidStatus reports whether the value names a known lifecycle status.
func IsValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Job represents a transcription job persisted in SQLite.
type Job struct {
	ID              int64
	JobUUID         string
	SourcePath      string
	Title           string
	Language        string
	Status          Status
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	// TranscriptJSON holds the serialized transcribe stage output: transcript
	// text, per-chunk results, reconciled segments, and total duration.
	TranscriptJSON string
	// TopicJSON holds the serialized topic analysis, empty when segmentation
	// was skipped or degraded.
	TopicJSON string
	// AnalysisError preserves the segmentation failure message on degraded
	// jobs; distinct from ErrorMessage, which is job-fatal.
	AnalysisError string
	// ResultPath is where the final result artifact was published.
	ResultPath    string
	LastHeartbeat *time.Time
	NeedsReview   bool
	ReviewReason  string
}

// InitProgress resets progress tracking at the start of a stage.
func (j *Job) InitProgress(stage, message string) {
	j.ProgressStage = stage
	j.ProgressPercent = 0
	j.ProgressMessage = message
}

// DisplayTitle returns the job title, deriving one from the source path when unset.
func (j *Job) DisplayTitle() string {
	if title := strings.TrimSpace(j.Title); title != "" {
		return title
	}
	return inferTitleFromPath(j.SourcePath)
}

func inferTitleFromPath(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TotalJobs        int
	Error            string
}
