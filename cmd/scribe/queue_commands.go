package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the transcription queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var jobs []*queue.Job
				var err error
				if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
					status := queue.Status(trimmed)
					if !queue.IsValidStatus(status) {
						return fmt.Errorf("unknown status %q", trimmed)
					}
					jobs, err = store.JobsByStatus(cmd.Context(), status)
				} else {
					jobs, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.DisplayTitle(),
						string(job.Status),
						fmt.Sprintf("%.0f%%", job.ProgressPercent),
						job.ProgressMessage,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Message"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only list jobs with this status")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for a queued job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				job, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job #%d (%s)\n", job.ID, job.JobUUID)
				fmt.Fprintf(out, "  Title:    %s\n", job.DisplayTitle())
				fmt.Fprintf(out, "  Source:   %s\n", job.SourcePath)
				fmt.Fprintf(out, "  Language: %s\n", job.Language)
				fmt.Fprintf(out, "  Status:   %s\n", job.Status)
				fmt.Fprintf(out, "  Progress: %s (%.0f%%) %s\n", job.ProgressStage, job.ProgressPercent, job.ProgressMessage)
				fmt.Fprintf(out, "  Created:  %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:    %s\n", job.ErrorMessage)
				}
				if job.NeedsReview {
					fmt.Fprintf(out, "  Review:   %s\n", job.ReviewReason)
				}
				if job.AnalysisError != "" {
					fmt.Fprintf(out, "  Topics:   unavailable (%s)\n", job.AnalysisError)
				}
				if job.ResultPath != "" {
					fmt.Fprintf(out, "  Result:   %s\n", job.ResultPath)
				}
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id> [id...]",
		Short: "Reset failed or review jobs back to pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				for _, arg := range args {
					id, err := strconv.ParseInt(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid job id %q", arg)
					}
					if err := store.ResetJob(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Job #%d reset to pending\n", id)
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearFailed bool
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var statuses []queue.Status
				if clearFailed {
					statuses = append(statuses, queue.StatusFailed, queue.StatusReview)
				}
				if clearCompleted {
					statuses = append(statuses, queue.StatusCompleted)
				}
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Only clear failed and review jobs")
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Only clear completed jobs")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				summary, err := store.HealthSummary(cmd.Context())
				if err != nil {
					return err
				}
				db := store.Health(cmd.Context())

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", db.DBPath)
				fmt.Fprintf(out, "  Exists:   %s\n", yesNo(db.DatabaseExists))
				fmt.Fprintf(out, "  Readable: %s\n", yesNo(db.DatabaseReadable))
				fmt.Fprintf(out, "  Schema:   %s\n", db.SchemaVersion)
				if db.Error != "" {
					fmt.Fprintf(out, "  Error:    %s\n", db.Error)
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Total", "Pending", "Processing", "Completed", "Failed", "Review"},
					[][]string{{
						strconv.Itoa(summary.Total),
						strconv.Itoa(summary.Pending),
						strconv.Itoa(summary.Processing),
						strconv.Itoa(summary.Completed),
						strconv.Itoa(summary.Failed),
						strconv.Itoa(summary.Review),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
