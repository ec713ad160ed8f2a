package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			written, err := config.WriteSample(target)
			if err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", written)
			fmt.Fprintln(out, "Set the transcription API key (or export SCRIBE_WHISPER_API_KEY) before running Scribe.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults shown")
			}
			fmt.Fprintf(out, "Staging dir:    %s\n", cfg.Paths.StagingDir)
			fmt.Fprintf(out, "Output dir:     %s\n", cfg.Paths.OutputDir)
			fmt.Fprintf(out, "Log dir:        %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Transcription:  %s (model %s, language %s)\n",
				cfg.Transcription.BaseURL, cfg.Transcription.Model, cfg.Transcription.Language)
			fmt.Fprintf(out, "  API key:      %s\n", redactSecret(cfg.Transcription.APIKey))
			fmt.Fprintf(out, "  Chunk bytes:  %d (min %d, concurrency %d, retries %d)\n",
				cfg.Transcription.ChunkBytes, cfg.Transcription.MinChunkBytes,
				cfg.Transcription.MaxConcurrency, cfg.Transcription.MaxRetries)
			fmt.Fprintf(out, "Segmentation:   %s (model %s)\n", cfg.Segmentation.BaseURL, cfg.Segmentation.Model)
			fmt.Fprintf(out, "  API key:      %s\n", redactSecret(cfg.Segmentation.APIKey))
			fmt.Fprintf(out, "  Fallback:     %s\n", yesNo(cfg.Segmentation.FallbackOnError))
			fmt.Fprintf(out, "Notifications:  %s\n", notifyTopicLabel(cfg.Notifications.NtfyTopic))
			fmt.Fprintf(out, "Logging:        %s / %s\n", cfg.Logging.Format, cfg.Logging.Level)
			return nil
		},
	}
}

func redactSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}

func notifyTopicLabel(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return "disabled"
	}
	return topic
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load("")
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
