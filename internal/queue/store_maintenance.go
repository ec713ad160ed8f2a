package queue

import (
	"context"
	"fmt"
	"os"
	"time"
)

// ReclaimStaleProcessing resets jobs stuck in a processing status whose
// heartbeat predates the cutoff. Each reclaimed job rolls back to the status
// its stage started from. Returns the number of jobs reclaimed.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	allowed := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		allowed[status] = struct{}{}
	}

	cutoffStr := cutoff.UTC().Format(time.RFC3339Nano)
	var reclaimed int64
	for _, transition := range stageRollbackTransitions {
		if _, ok := allowed[transition.from]; !ok {
			continue
		}
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, last_heartbeat = NULL, progress_stage = NULL, progress_percent = 0, progress_message = NULL
             WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
			transition.to,
			transition.from,
			cutoffStr,
		)
		if err != nil {
			return reclaimed, fmt.Errorf("reclaim %s jobs: %w", transition.from, err)
		}
		count, err := res.RowsAffected()
		if err != nil {
			return reclaimed, fmt.Errorf("reclaim rows affected: %w", err)
		}
		reclaimed += count
	}
	return reclaimed, nil
}

// ResetJob returns a failed or review job to pending for another attempt.
func (s *Store) ResetJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = NULL, analysis_error = NULL,
            progress_stage = NULL, progress_percent = 0, progress_message = NULL,
            needs_review = 0, review_reason = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusFailed,
		StatusReview,
	)
	if err != nil {
		return fmt.Errorf("reset job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d is not in a resettable status", id)
	}
	return nil
}

// Clear deletes jobs matching the provided statuses; with no statuses it
// deletes every job.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	var (
		res interface{ RowsAffected() (int64, error) }
		err error
	)
	if len(statuses) == 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM jobs`)
	} else {
		args := make([]any, 0, len(statuses))
		for _, status := range statuses {
			args = append(args, status)
		}
		res, err = s.db.ExecContext(ctx, `DELETE FROM jobs WHERE status IN (`+makePlaceholders(len(statuses))+`)`, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// HealthSummary aggregates job counts per lifecycle state.
func (s *Store) HealthSummary(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return summary, fmt.Errorf("health summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return summary, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending += count
		case StatusTranscribing, StatusSegmenting:
			summary.Processing += count
		case StatusTranscribed:
			summary.Pending += count
		case StatusFailed:
			summary.Failed += count
		case StatusReview:
			summary.Review += count
		case StatusCompleted:
			summary.Completed += count
		}
	}
	return summary, rows.Err()
}

// Health inspects the queue database file and schema.
func (s *Store) Health(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{DBPath: s.path}
	if _, err := os.Stat(s.path); err == nil {
		health.DatabaseExists = true
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		health.Error = err.Error()
		return health
	}
	health.DatabaseReadable = true
	health.SchemaVersion = fmt.Sprintf("%d", version)
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&health.TotalJobs); err != nil {
		health.Error = err.Error()
	}
	return health
}
