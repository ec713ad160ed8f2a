package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/daemon"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/segment"
	"scribe/internal/services/llm"
	"scribe/internal/services/whisper"
	"scribe/internal/storage"
	"scribe/internal/transcribe"
	"scribe/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}

			artifacts, err := storage.NewLocalStore(cfg.Paths.OutputDir)
			if err != nil {
				store.Close()
				return fmt.Errorf("open artifact store: %w", err)
			}

			langCode, err := language.Normalize(cfg.Transcription.Language)
			if err != nil {
				store.Close()
				return fmt.Errorf("resolve transcription language: %w", err)
			}
			whisperClient := whisper.NewClient(whisper.Config{
				APIKey:         cfg.Transcription.APIKey,
				BaseURL:        cfg.Transcription.BaseURL,
				Model:          cfg.Transcription.Model,
				Language:       langCode,
				TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
			})
			llmClient := llm.NewClient(llm.Config{
				APIKey:         cfg.Segmentation.APIKey,
				BaseURL:        cfg.Segmentation.BaseURL,
				Model:          cfg.Segmentation.Model,
				TimeoutSeconds: cfg.Segmentation.TimeoutSeconds,
			})

			manager := workflow.NewManager(cfg, store, logger)
			manager.ConfigureStages(workflow.StageSet{
				Transcriber: transcribe.NewTranscriber(cfg, store, whisperClient, logger),
				Segmenter:   segment.NewSegmenter(cfg, store, llmClient, artifacts, logger),
			})

			d, err := daemon.New(cfg, store, logger, manager)
			if err != nil {
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Processing queue; press Ctrl-C to stop")
			<-signalCtx.Done()
			logger.Info("scribe shutting down")
			return nil
		},
	}
}
