package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/language"
	"scribe/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add an audio file to the transcription queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			if info.Size() == 0 {
				return fmt.Errorf("%s is empty", absPath)
			}

			ext := strings.ToLower(filepath.Ext(info.Name()))
			if !daemon.SupportedExtension(ext) {
				return fmt.Errorf("unsupported file extension %q", ext)
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				tag := strings.TrimSpace(languageFlag)
				if tag == "" {
					tag = cfg.Transcription.Language
				}
				code, err := language.Normalize(tag)
				if err != nil {
					return err
				}
				job, err := store.NewJob(cmd.Context(), absPath, title, code)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job #%d\n", filepath.Base(absPath), job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Display title for the job")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Override the configured transcription language")
	return cmd
}
