package config

import (
	"errors"
	"fmt"

	"scribe/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scribe/config.toml"
		}
		return fmt.Errorf("transcription.api_key is required. Set %s env var or edit %s (create with 'scribe config init')", envWhisperAPIKey, defaultPath)
	}
	if _, err := language.Normalize(c.Transcription.Language); err != nil {
		return fmt.Errorf("transcription.language: %w", err)
	}
	if c.Transcription.MinChunkBytes > c.Transcription.ChunkBytes {
		return errors.New("transcription.min_chunk_bytes must not exceed transcription.chunk_bytes")
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	if c.Segmentation.APIKey == "" {
		return fmt.Errorf("segmentation.api_key is required. Set %s env var or add it to the config file", envLLMAPIKey)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
