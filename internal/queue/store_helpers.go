package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, job_uuid, source_path, title, language, status, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, transcript_json, topic_json, analysis_error, result_path, last_heartbeat, needs_review, review_reason"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		jobUUID          string
		sourcePath       sql.NullString
		title            sql.NullString
		languageTag      sql.NullString
		statusStr        string
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		transcriptJSON   sql.NullString
		topicJSON        sql.NullString
		analysisError    sql.NullString
		resultPath       sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobUUID,
		&sourcePath,
		&title,
		&languageTag,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&transcriptJSON,
		&topicJSON,
		&analysisError,
		&resultPath,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		JobUUID:         jobUUID,
		SourcePath:      sourcePath.String,
		Title:           title.String,
		Language:        languageTag.String,
		Status:          Status(statusStr),
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		TranscriptJSON:  transcriptJSON.String,
		TopicJSON:       topicJSON.String,
		AnalysisError:   analysisError.String,
		ResultPath:      resultPath.String,
		ReviewReason:    reviewReason.String,
	}
	if needsReview.Valid {
		job.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
