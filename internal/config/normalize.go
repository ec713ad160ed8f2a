package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted when the corresponding config value is
// empty. Keys are resolved once per Load; clients cache them for the process
// lifetime.
const (
	envWhisperAPIKey = "SCRIBE_WHISPER_API_KEY"
	envLLMAPIKey     = "SCRIBE_LLM_API_KEY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeSegmentation()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = ExpandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = strings.TrimSpace(os.Getenv(envWhisperAPIKey))
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultWhisperBaseURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultLanguage
	}
	if c.Transcription.ChunkBytes <= 0 {
		c.Transcription.ChunkBytes = defaultChunkBytes
	}
	if c.Transcription.MinChunkBytes <= 0 {
		c.Transcription.MinChunkBytes = defaultMinChunkBytes
	}
	if c.Transcription.MaxConcurrency <= 0 {
		c.Transcription.MaxConcurrency = defaultMaxConcurrency
	}
	if c.Transcription.MaxRetries < 0 {
		c.Transcription.MaxRetries = defaultMaxRetries
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeoutSecs
	}
}

func (c *Config) normalizeSegmentation() {
	c.Segmentation.APIKey = strings.TrimSpace(c.Segmentation.APIKey)
	if c.Segmentation.APIKey == "" {
		c.Segmentation.APIKey = strings.TrimSpace(os.Getenv(envLLMAPIKey))
	}
	c.Segmentation.BaseURL = strings.TrimSpace(c.Segmentation.BaseURL)
	if c.Segmentation.BaseURL == "" {
		c.Segmentation.BaseURL = defaultSegmentationBaseURL
	}
	c.Segmentation.Model = strings.TrimSpace(c.Segmentation.Model)
	if c.Segmentation.Model == "" {
		c.Segmentation.Model = defaultSegmentationModel
	}
	if c.Segmentation.TimeoutSeconds <= 0 {
		c.Segmentation.TimeoutSeconds = defaultSegmentationTimeoutSecs
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeoutSecs
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultWorkflowQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultWorkflowErrorRetry
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultWorkflowHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultWorkflowHeartbeatTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
