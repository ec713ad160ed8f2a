package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/services/llm"
	"scribe/internal/stage"
	"scribe/internal/storage"
	"scribe/internal/transcribe"
)

const (
	progressStageSegmenting  = "Segmenting"
	progressPercentPrompting = 20.0
	progressPercentPublish   = 85.0
)

// CompletionClient is the text-generation capability the stage depends on.
// Satisfied by *llm.Client.
type CompletionClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Segmenter integrates topic segmentation with the workflow manager and
// publishes the final job result through the artifact store.
type Segmenter struct {
	store     *queue.Store
	cfg       *config.Config
	client    CompletionClient
	artifacts storage.ObjectStore
	logger    *slog.Logger
}

// NewSegmenter constructs the workflow stage that derives topic segments from
// a reconciled transcript.
func NewSegmenter(cfg *config.Config, store *queue.Store, client CompletionClient, artifacts storage.ObjectStore, logger *slog.Logger) *Segmenter {
	return &Segmenter{
		cfg:       cfg,
		store:     store,
		client:    client,
		artifacts: artifacts,
		logger:    logging.NewComponentLogger(logger, "segment"),
	}
}

// SetLogger allows the workflow manager to route stage logs into the job-scoped log.
func (s *Segmenter) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "segment")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Segmenter) Prepare(ctx context.Context, job *queue.Job) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "segment", "prepare", "Segmentation stage is not configured", nil)
	}
	if s.store == nil {
		return services.Wrap(services.ErrConfiguration, "segment", "prepare", "Queue store unavailable", nil)
	}
	job.InitProgress(progressStageSegmenting, "Preparing topic segmentation")
	return s.store.UpdateProgress(ctx, job)
}

// resultPayload is the published job result.
type resultPayload struct {
	JobUUID              string                     `json:"job_uuid"`
	Title                string                     `json:"title,omitempty"`
	Transcription        string                     `json:"transcription"`
	TranscriptionResults []transcribe.ChunkResult   `json:"transcription_results"`
	Segments             []transcribe.GlobalSegment `json:"segments"`
	Duration             float64                    `json:"duration"`
	TopicAnalysis        *Analysis                  `json:"topic_analysis"`
	AnalysisError        string                     `json:"analysis_error,omitempty"`
}

// Execute derives topic segments for the job's transcript and publishes the
// combined result. Segmentation failure degrades the job to
// transcription-only output when the fallback policy allows it.
func (s *Segmenter) Execute(ctx context.Context, job *queue.Job) error {
	stageStart := time.Now()

	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "segment", "execute", "Segmentation stage is not configured", nil)
	}
	if job == nil {
		return services.Wrap(services.ErrValidation, "segment", "execute", "Queue job is nil", nil)
	}
	if s.store == nil {
		return services.Wrap(services.ErrConfiguration, "segment", "execute", "Queue store unavailable", nil)
	}
	if s.artifacts == nil {
		return services.Wrap(services.ErrConfiguration, "segment", "execute", "Artifact store unavailable", nil)
	}

	logger := logging.WithContext(ctx, s.logger)

	var transcript transcribe.Result
	if err := json.Unmarshal([]byte(job.TranscriptJSON), &transcript); err != nil {
		return services.Wrap(services.ErrValidation, "segment", "decode transcript",
			"Job carries no usable transcription result", err)
	}
	if len(transcript.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "segment", "decode transcript",
			"Transcription result has no segments to analyze", nil)
	}

	plan := PlanTopics(transcript.Duration)
	logger.Info("topic plan ready",
		logging.String("category", plan.Category),
		logging.Int("min_topics", plan.MinTopics),
		logging.Int("max_topics", plan.MaxTopics),
		logging.Float64("duration", transcript.Duration),
	)

	if err := s.updateProgress(ctx, job, fmt.Sprintf("Requesting %d-%d topics", plan.MinTopics, plan.MaxTopics), progressPercentPrompting); err != nil {
		return err
	}

	analysis, analysisErr := s.segmentTranscript(ctx, &transcript, plan)
	if analysisErr != nil {
		if !s.cfg.Segmentation.FallbackOnError {
			return services.Wrap(services.ErrExternalService, "segment", "derive topics",
				"Topic segmentation failed and fallback is disabled", analysisErr)
		}
		logger.Warn("topic segmentation failed; continuing with transcript only",
			logging.Error(analysisErr),
			logging.String(logging.FieldEventType, "segmentation_degraded"),
			logging.String(logging.FieldErrorHint, "check the LLM configuration and retry the job for topics"),
		)
		analysis = nil
	} else {
		for _, warning := range auditAnalysis(analysis, transcript.Duration) {
			logger.Warn("segmentation result looks off", logging.String("warning", warning))
		}
	}

	if err := s.updateProgress(ctx, job, "Publishing result", progressPercentPublish); err != nil {
		return err
	}

	payload := resultPayload{
		JobUUID:              job.JobUUID,
		Title:                job.Title,
		Transcription:        transcript.Transcription,
		TranscriptionResults: transcript.ChunkResults,
		Segments:             transcript.Segments,
		Duration:             transcript.Duration,
		TopicAnalysis:        analysis,
	}
	if analysisErr != nil {
		payload.AnalysisError = analysisErr.Error()
		job.AnalysisError = analysisErr.Error()
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "segment", "encode result",
			"Failed to encode job result", err)
	}
	resultPath, err := s.artifacts.Put(ctx, resultKey(job), storage.Object{
		Data:        encoded,
		ContentType: "application/json",
		Metadata: map[string]string{
			"job_uuid": job.JobUUID,
			"title":    job.Title,
		},
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "segment", "publish result",
			"Failed to publish job result", err)
	}
	job.ResultPath = resultPath

	if analysis != nil {
		topics, err := json.Marshal(analysis)
		if err != nil {
			return services.Wrap(services.ErrValidation, "segment", "encode topics",
				"Failed to encode topic analysis", err)
		}
		job.TopicJSON = string(topics)
	}

	job.ProgressStage = "Segmented"
	job.ProgressPercent = 100
	job.ProgressMessage = completionMessage(analysis, analysisErr)
	if err := s.store.UpdateProgress(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "segment", "persist progress",
			"Failed to persist segmentation progress", err)
	}

	logger.Info("segmentation stage summary",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
		logging.Bool("degraded", analysis == nil),
		logging.Int("topics", topicCount(analysis)),
		logging.String("result_path", resultPath),
	)

	return nil
}

// HealthCheck reports readiness for the segmentation stage.
func (s *Segmenter) HealthCheck(ctx context.Context) stage.Health {
	const name = "segment"
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if s.store == nil {
		return stage.Unhealthy(name, "queue store unavailable")
	}
	if s.artifacts == nil {
		return stage.Unhealthy(name, "artifact store unavailable")
	}
	if s.client == nil && !s.cfg.Segmentation.FallbackOnError {
		return stage.Unhealthy(name, "segmentation client unavailable and fallback disabled")
	}
	return stage.Healthy(name)
}

// segmentTranscript performs the single segmentation request and decode. Any
// failure here is recoverable at job level under the fallback policy.
func (s *Segmenter) segmentTranscript(ctx context.Context, transcript *transcribe.Result, plan Plan) (*Analysis, error) {
	if s.client == nil {
		return nil, fmt.Errorf("segmentation client unavailable")
	}
	prompt := BuildUserPrompt(transcript.Segments, transcript.Duration, plan)
	content, err := s.client.CompleteJSON(ctx, TopicSegmentationPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("segmentation request: %w", err)
	}
	var analysis Analysis
	if err := llm.DecodeJSON(content, &analysis); err != nil {
		return nil, fmt.Errorf("segmentation response: %w", err)
	}
	if len(analysis.Segments) == 0 {
		return nil, fmt.Errorf("segmentation response: no segments returned")
	}
	return &analysis, nil
}

func (s *Segmenter) updateProgress(ctx context.Context, job *queue.Job, message string, percent float64) error {
	job.ProgressStage = progressStageSegmenting
	if strings.TrimSpace(message) != "" {
		job.ProgressMessage = message
	}
	if percent >= 0 {
		job.ProgressPercent = percent
	}
	if err := s.store.UpdateProgress(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "segment", "persist progress",
			"Failed to persist segmentation progress", err)
	}
	return nil
}

func resultKey(job *queue.Job) string {
	return fmt.Sprintf("results/%s.json", job.JobUUID)
}

func completionMessage(analysis *Analysis, analysisErr error) string {
	if analysis == nil {
		if analysisErr != nil {
			return "Transcript ready; topic segmentation unavailable"
		}
		return "Transcript ready"
	}
	return fmt.Sprintf("Transcript ready with %d topic(s)", len(analysis.Segments))
}

func topicCount(analysis *Analysis) int {
	if analysis == nil {
		return 0
	}
	return len(analysis.Segments)
}
