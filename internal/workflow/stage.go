package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
)

func (m *Manager) processJob(ctx context.Context, job *queue.Job) error {
	stg, ok := m.stageForStatus(job.Status)
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(job.Status)))
		m.waitForJobOrShutdown(ctx)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithJobID(ctx, job.ID), stg.name), requestID)
	stageLogger := logging.WithContext(stageCtx, m.logger)
	if aware, ok := stg.handler.(loggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if err := m.transitionToProcessing(stageCtx, stg, job); err != nil {
		stageLogger.Error("failed to transition job to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, job)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, job *queue.Job) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("title", job.DisplayTitle()),
		logging.String("source_file", strings.TrimSpace(job.SourcePath)),
	)

	if err := stg.handler.Prepare(ctx, job); err != nil {
		m.handleStageFailure(ctx, stg.name, job, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, stg, job)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, job, execErr)
		m.setLastError(execErr)
		return execErr
	}

	if job.Status == stg.processingStatus || job.Status == "" {
		job.Status = stg.doneStatus
	}
	job.LastHeartbeat = nil
	if err := m.store.Update(ctx, job); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.String("progress_stage", strings.TrimSpace(job.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(job.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)
	m.notifyStageCompleted(ctx, stg, job)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := stg.handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, job *queue.Job) error {
	now := time.Now().UTC()
	job.Status = stg.processingStatus
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	return nil
}

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *queue.Job, stageErr error) {
	logger := logging.WithContext(ctx, m.logger)

	message := failureMessage(stageName, stageErr)
	status := services.FailureStatus(stageErr)
	job.Status = status
	job.ErrorMessage = message
	job.LastHeartbeat = nil
	if status == queue.StatusReview {
		job.NeedsReview = true
		job.ReviewReason = message
	}

	logger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(status)),
		logging.String("error_message", message),
	)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastJob(job)
	if m.notifier != nil {
		if err := m.notifier.NotifyJobFailed(ctx, job.DisplayTitle(), message); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stageName)
	}
	if message := strings.TrimSpace(stageErr.Error()); message != "" {
		return message
	}
	return fmt.Sprintf("%s failed", stageName)
}

func (m *Manager) notifyStageCompleted(ctx context.Context, stg pipelineStage, job *queue.Job) {
	if m.notifier == nil {
		return
	}
	var err error
	switch stg.doneStatus {
	case queue.StatusTranscribed:
		succeeded, total := chunkTally(job)
		err = m.notifier.NotifyTranscriptionComplete(ctx, job.DisplayTitle(), succeeded, total)
	case queue.StatusCompleted:
		if job.AnalysisError != "" {
			err = m.notifier.NotifyJobDegraded(ctx, job.DisplayTitle(), job.AnalysisError)
		} else {
			err = m.notifier.NotifyJobCompleted(ctx, job.DisplayTitle(), topicTally(job))
		}
	}
	if err != nil {
		m.logger.Warn("completion notification failed", logging.Error(err))
	}
}

// chunkTally reads the submitted/succeeded chunk counts back out of the
// persisted transcription payload for notification text.
func chunkTally(job *queue.Job) (succeeded, total int) {
	var result struct {
		ChunkResults []struct {
			Success bool `json:"success"`
			Skipped bool `json:"skipped"`
		} `json:"chunk_results"`
	}
	if err := json.Unmarshal([]byte(job.TranscriptJSON), &result); err != nil {
		return 0, 0
	}
	for _, chunk := range result.ChunkResults {
		if chunk.Skipped {
			continue
		}
		total++
		if chunk.Success {
			succeeded++
		}
	}
	return succeeded, total
}

func topicTally(job *queue.Job) int {
	var analysis struct {
		Segments []struct{} `json:"segments"`
	}
	if err := json.Unmarshal([]byte(job.TopicJSON), &analysis); err != nil {
		return 0
	}
	return len(analysis.Segments)
}
