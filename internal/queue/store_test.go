package queue_test

import (
	"context"
	"testing"
	"time"

	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func TestNewJobDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job := testsupport.NewJob(t, store, "/tmp/meetings/standup.mp3", "")
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if job.JobUUID == "" {
		t.Fatal("expected job uuid to be assigned")
	}
	if got := job.DisplayTitle(); got != "standup" {
		t.Fatalf("expected title derived from path, got %q", got)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/tmp/audio.mp3", "Weekly sync")
	job.Status = queue.StatusTranscribed
	job.TranscriptJSON = `{"transcription":"hello"}`
	job.AnalysisError = "segmentation unavailable"
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusTranscribed {
		t.Fatalf("status = %s, want transcribed", got.Status)
	}
	if got.TranscriptJSON != job.TranscriptJSON {
		t.Fatalf("transcript json not persisted: %q", got.TranscriptJSON)
	}
	if got.AnalysisError != "segmentation unavailable" {
		t.Fatalf("analysis error not persisted: %q", got.AnalysisError)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "/tmp/a.mp3", "first")
	testsupport.NewJob(t, store, "/tmp/b.mp3", "second")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending job %d, got %+v", first.ID, next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusSegmenting)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty status, got %+v", none)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/tmp/a.mp3", "stale")
	stale := time.Now().Add(-time.Hour)
	job.Status = queue.StatusTranscribing
	job.LastHeartbeat = &stale
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-time.Minute), queue.ProcessingStatuses()...)
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("reclaimed = %d, want 1", reclaimed)
	}

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending after reclaim", got.Status)
	}
}

func TestResetJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/tmp/a.mp3", "failed job")
	job.Status = queue.StatusFailed
	job.ErrorMessage = "insufficient chunk success"
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.ResetJob(ctx, job.ID); err != nil {
		t.Fatalf("ResetJob: %v", err)
	}
	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusPending || got.ErrorMessage != "" {
		t.Fatalf("expected clean pending job, got status=%s error=%q", got.Status, got.ErrorMessage)
	}

	if err := store.ResetJob(ctx, job.ID); err == nil {
		t.Fatal("expected error resetting a pending job")
	}
}

func TestHealthSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "/tmp/a.mp3", "a")
	done := testsupport.NewJob(t, store, "/tmp/b.mp3", "b")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	summary, err := store.HealthSummary(ctx)
	if err != nil {
		t.Fatalf("HealthSummary: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
