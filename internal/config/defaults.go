package config

const (
	defaultStagingDir = "~/.local/share/scribe/staging"
	defaultOutputDir  = "~/.local/share/scribe/output"
	defaultLogDir     = "~/.local/share/scribe/logs"

	defaultWhisperBaseURL = "https://api.openai.com/v1/audio/transcriptions"
	defaultWhisperModel   = "whisper-1"
	defaultLanguage       = "en"

	// Chunks larger than this get split for upload. OpenAI caps uploads at
	// 25 MiB, so stay comfortably below it.
	defaultChunkBytes = int64(10 * 1024 * 1024)
	// Slices below this are skipped rather than transcribed: sub-frame
	// fragments reliably fail with malformed-audio errors.
	defaultMinChunkBytes = int64(4096)

	defaultMaxConcurrency            = 5
	defaultMaxRetries                = 3
	defaultTranscriptionTimeoutSecs  = 120
	defaultSegmentationTimeoutSecs   = 60
	defaultSegmentationBaseURL       = "https://api.openai.com/v1/chat/completions"
	defaultSegmentationModel         = "gpt-4o-mini"
	defaultSegmentationFallback      = true
	defaultNotifyRequestTimeoutSecs  = 10
	defaultWorkflowQueuePollInterval = 5
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Transcription: Transcription{
			BaseURL:        defaultWhisperBaseURL,
			Model:          defaultWhisperModel,
			Language:       defaultLanguage,
			ChunkBytes:     defaultChunkBytes,
			MinChunkBytes:  defaultMinChunkBytes,
			MaxConcurrency: defaultMaxConcurrency,
			MaxRetries:     defaultMaxRetries,
			TimeoutSeconds: defaultTranscriptionTimeoutSecs,
		},
		Segmentation: Segmentation{
			BaseURL:         defaultSegmentationBaseURL,
			Model:           defaultSegmentationModel,
			TimeoutSeconds:  defaultSegmentationTimeoutSecs,
			FallbackOnError: defaultSegmentationFallback,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeoutSecs,
			JobQueued:      true,
			Transcription:  true,
			Completion:     true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultWorkflowQueuePollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
