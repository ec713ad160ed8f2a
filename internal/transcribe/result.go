package transcribe

import (
	"context"

	"scribe/internal/services/whisper"
)

// Client is the transcription capability the stage depends on. Satisfied by
// *whisper.Client; test doubles implement it directly. language carries the
// job's ISO-639-1 code on every request.
type Client interface {
	Transcribe(ctx context.Context, filename string, audio []byte, language string) (whisper.Result, error)
}

// ChunkResult is the terminal outcome of one chunk. Immutable once returned;
// collected into a slice indexed by chunk ordinal so ordering survives
// out-of-order completion.
type ChunkResult struct {
	Index    int               `json:"index"`
	Success  bool              `json:"success"`
	Skipped  bool              `json:"skipped,omitempty"`
	Text     string            `json:"text,omitempty"`
	Segments []whisper.Segment `json:"segments,omitempty"`
	Duration float64           `json:"duration,omitempty"`
	// Permanent reports a non-retryable failure class (malformed request,
	// authorization, payload too large).
	Permanent bool   `json:"permanent,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GlobalSegment is a transcript span on the reconciled absolute timeline.
type GlobalSegment struct {
	Text        string  `json:"text"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	SourceChunk int     `json:"source_chunk"`
}

// Result is the transcription stage output persisted on the job.
type Result struct {
	Transcription string          `json:"transcription"`
	ChunkResults  []ChunkResult   `json:"chunk_results"`
	Segments      []GlobalSegment `json:"segments"`
	// Duration is the total reconciled duration in seconds, i.e. the sum of
	// the service-reported durations of all successful chunks.
	Duration float64 `json:"duration"`
	// FailedTransient lists chunk ordinals that failed after exhausting
	// their retries; a later manual retry of the job may recover them.
	FailedTransient []int `json:"failed_transient,omitempty"`
}
