package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"log/slog"

	"scribe/internal/chunking"
	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

const (
	progressStageTranscribing = "Transcribing"
	progressPercentPlanned    = 5.0
	progressPercentUploading  = 15.0
	progressPercentMerging    = 90.0
)

// Transcriber integrates chunked transcription with the workflow manager.
type Transcriber struct {
	store         *queue.Store
	cfg           *config.Config
	client        Client
	logger        *slog.Logger
	minChunkBytes int64
	maxRetries    int

	// sleeper replaces retry backoff waits in tests.
	sleeper func(time.Duration)
}

// NewTranscriber constructs a workflow stage that transcribes queued audio in
// concurrent chunk batches.
func NewTranscriber(cfg *config.Config, store *queue.Store, client Client, logger *slog.Logger) *Transcriber {
	t := &Transcriber{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "transcribe"),
	}
	if cfg != nil {
		t.minChunkBytes = cfg.Transcription.MinChunkBytes
		t.maxRetries = cfg.Transcription.MaxRetries
	}
	return t
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	if t == nil {
		return
	}
	t.logger = logging.NewComponentLogger(logger, "transcribe")
}

// Prepare primes queue progress fields before executing the stage.
func (t *Transcriber) Prepare(ctx context.Context, job *queue.Job) error {
	if t == nil || t.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "prepare", "Transcription stage is not configured", nil)
	}
	if t.store == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "prepare", "Queue store unavailable", nil)
	}
	job.InitProgress(progressStageTranscribing, "Planning chunks")
	return t.store.UpdateProgress(ctx, job)
}

// Execute transcribes the job's source file: plan byte-range chunks, process
// them in bounded concurrent batches, gate on the success ratio, then merge
// the surviving segments onto one absolute timeline.
func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	stageStart := time.Now()

	if t == nil || t.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "execute", "Transcription stage is not configured", nil)
	}
	if job == nil {
		return services.Wrap(services.ErrValidation, "transcribe", "execute", "Queue job is nil", nil)
	}
	if t.store == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "execute", "Queue store unavailable", nil)
	}
	if t.client == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "execute", "Transcription client unavailable", nil)
	}

	logger := logging.WithContext(ctx, t.logger)

	sourcePath := strings.TrimSpace(job.SourcePath)
	if sourcePath == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "execute", "Job has no source path", nil)
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "stat source",
			fmt.Sprintf("Source file unavailable: %s", sourcePath), err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "stat source",
			"Source file is empty", nil)
	}

	langCode, err := t.resolveLanguage(job)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "resolve language",
			"Job carries an unusable language tag", err)
	}

	specs := chunking.Plan(info.Size(), t.cfg.Transcription.ChunkBytes)
	concurrency := concurrencyFor(len(specs), t.cfg.Transcription.MaxConcurrency)
	logger.Info("chunk plan ready",
		logging.Int("chunks", len(specs)),
		logging.Int("concurrency", concurrency),
		logging.Int64("source_bytes", info.Size()),
		logging.String("language", langCode),
	)

	if err := t.updateProgress(ctx, job, fmt.Sprintf("Planned %d chunk(s)", len(specs)), progressPercentPlanned); err != nil {
		return err
	}
	if err := t.updateProgress(ctx, job, fmt.Sprintf("Transcribing %d chunk(s), %d at a time", len(specs), concurrency), progressPercentUploading); err != nil {
		return err
	}

	results := t.runBatches(ctx, sourcePath, langCode, specs, concurrency)
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "run batches",
			"Transcription interrupted", err)
	}

	submitted, successful := tallyOutcomes(results)
	if exhausted := TransientFailures(results); len(exhausted) > 0 {
		logger.Warn("chunks failed after exhausting retries",
			logging.Any("chunks", exhausted),
			logging.String(logging.FieldEventType, "chunks_retry_exhausted"),
			logging.String(logging.FieldErrorHint, "retry the job once the transcription service recovers"),
		)
	}
	if err := CheckSuccessGate(successful, submitted); err != nil {
		return services.Wrap(services.ErrExternalService, "transcribe", "success gate",
			"Too many chunks failed to transcribe", err)
	}

	if err := t.updateProgress(ctx, job, "Merging chunk transcripts", progressPercentMerging); err != nil {
		return err
	}

	segments, duration := ReconcileTimeline(results)
	result := Result{
		Transcription:   joinTranscripts(results),
		ChunkResults:    results,
		Segments:        segments,
		Duration:        duration,
		FailedTransient: TransientFailures(results),
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "encode result",
			"Failed to encode transcription result", err)
	}
	job.TranscriptJSON = string(encoded)

	job.ProgressStage = "Transcribed"
	job.ProgressPercent = 100
	job.ProgressMessage = fmt.Sprintf("Transcribed %d/%d chunk(s), %.0fs of audio", successful, submitted, duration)
	if err := t.store.UpdateProgress(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "persist progress",
			"Failed to persist transcription progress", err)
	}

	logger.Info("transcription stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Int("chunks_planned", len(specs)),
		logging.Int("chunks_submitted", submitted),
		logging.Int("chunks_succeeded", successful),
		logging.Int("segments", len(segments)),
		logging.Float64("audio_duration", duration),
	)

	return nil
}

// HealthCheck reports readiness for the transcription stage.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if t == nil || t.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if t.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "transcription client unavailable")
	}
	if strings.TrimSpace(t.cfg.Transcription.APIKey) == "" {
		return stage.Unhealthy(name, "transcription API key missing")
	}
	return stage.Healthy(name)
}

// resolveLanguage picks the job's language tag (falling back to the
// configured default) and normalizes it to the ISO-639-1 code the
// transcription service expects on the wire.
func (t *Transcriber) resolveLanguage(job *queue.Job) (string, error) {
	tag := strings.TrimSpace(job.Language)
	if tag == "" {
		tag = t.cfg.Transcription.Language
	}
	return language.Normalize(tag)
}

func (t *Transcriber) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) error {
	job.ProgressStage = progressStageTranscribing
	if strings.TrimSpace(message) != "" {
		job.ProgressMessage = message
	}
	if percent >= 0 {
		job.ProgressPercent = percent
	}
	if err := t.store.UpdateProgress(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "persist progress",
			"Failed to persist transcription progress", err)
	}
	return nil
}

// tallyOutcomes counts submitted (non-skipped) and successful chunks.
// Sub-minimum chunks never reach the service, so they count against neither
// side of the success gate.
func tallyOutcomes(results []ChunkResult) (submitted, successful int) {
	for _, chunk := range results {
		if chunk.Skipped {
			continue
		}
		submitted++
		if chunk.Success {
			successful++
		}
	}
	return submitted, successful
}

// TransientFailures lists the ordinals of chunks that failed even after
// exhausting their retries, for diagnostics. Permanent failures and skipped
// chunks are excluded: the former would fail identically on a rerun, the
// latter never reached the service.
func TransientFailures(results []ChunkResult) []int {
	var exhausted []int
	for _, chunk := range results {
		if chunk.Skipped || chunk.Success || chunk.Permanent {
			continue
		}
		exhausted = append(exhausted, chunk.Index)
	}
	return exhausted
}

// joinTranscripts concatenates successful chunk texts in chunk order.
func joinTranscripts(results []ChunkResult) string {
	parts := make([]string, 0, len(results))
	for _, chunk := range results {
		if !chunk.Success {
			continue
		}
		if text := strings.TrimSpace(chunk.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
