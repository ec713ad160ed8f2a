package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcription.APIKey = "test"
	cfg.Segmentation.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLanguage overrides the fixed transcription language on the test config.
func WithLanguage(tag string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcription.Language = tag
	}
}

// WithChunkBytes overrides the chunk size on the test config.
func WithChunkBytes(size int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcription.ChunkBytes = size
	}
}
