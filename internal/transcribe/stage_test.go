package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
	"scribe/internal/testsupport"
)

// fakeClient answers every chunk with its upload filename so tests can verify
// ordering after concurrent completion.
type fakeClient struct {
	mu        sync.Mutex
	calls     int
	languages []string
	fail      error
}

func (c *fakeClient) Transcribe(ctx context.Context, filename string, audio []byte, language string) (whisper.Result, error) {
	c.mu.Lock()
	c.calls++
	c.languages = append(c.languages, language)
	c.mu.Unlock()
	if c.fail != nil {
		return whisper.Result{}, c.fail
	}
	return whisper.Result{
		Text:     filename,
		Duration: 10,
		Segments: []whisper.Segment{{Text: filename, Start: 0, End: 5}},
	}, nil
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeClient) requestLanguages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.languages...)
}

func newStageFixture(t *testing.T, sourceBytes int64, client Client) (*Transcriber, *queue.Job) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithChunkBytes(8*1024))
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(cfg.Paths.StagingDir, "lecture.mp3")
	testsupport.WriteFile(t, sourcePath, sourceBytes)
	job := testsupport.NewJob(t, store, sourcePath, "Lecture")

	tr := NewTranscriber(cfg, store, client, logging.NewNop())
	tr.sleeper = func(_ time.Duration) {}
	return tr, job
}

func TestExecuteMergesChunksInOrder(t *testing.T) {
	client := &fakeClient{}
	tr, job := newStageFixture(t, 20*1024, client) // 8K + 8K + 4K

	if err := tr.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if client.callCount() != 3 {
		t.Fatalf("expected 3 chunk uploads, got %d", client.callCount())
	}

	var result Result
	if err := json.Unmarshal([]byte(job.TranscriptJSON), &result); err != nil {
		t.Fatalf("decode transcript payload: %v", err)
	}
	wantText := "chunk_000.mp3 chunk_001.mp3 chunk_002.mp3"
	if result.Transcription != wantText {
		t.Errorf("transcription = %q, want %q", result.Transcription, wantText)
	}
	if len(result.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(result.Segments))
	}
	for i, seg := range result.Segments {
		wantStart := float64(i * 10)
		if seg.Start != wantStart || seg.End != wantStart+5 {
			t.Errorf("segment %d = [%v, %v], want [%v, %v]", i, seg.Start, seg.End, wantStart, wantStart+5)
		}
		if seg.SourceChunk != i {
			t.Errorf("segment %d source chunk = %d", i, seg.SourceChunk)
		}
	}
	if result.Duration != 30 {
		t.Errorf("duration = %v, want 30", result.Duration)
	}
	if job.ProgressPercent != 100 {
		t.Errorf("progress percent = %v, want 100", job.ProgressPercent)
	}
}

func TestExecuteNormalizesJobLanguage(t *testing.T) {
	client := &fakeClient{}
	cfg := testsupport.NewConfig(t, testsupport.WithChunkBytes(8*1024), testsupport.WithLanguage("de"))
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(cfg.Paths.StagingDir, "townhall.mp3")
	testsupport.WriteFile(t, sourcePath, 16*1024)
	job, err := store.NewJob(context.Background(), sourcePath, "Town Hall", "en-US")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}

	tr := NewTranscriber(cfg, store, client, logging.NewNop())
	tr.sleeper = func(_ time.Duration) {}
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	langs := client.requestLanguages()
	if len(langs) == 0 {
		t.Fatal("no chunk requests recorded")
	}
	for i, lang := range langs {
		if lang != "en" {
			t.Errorf("request %d language = %q, want %q", i, lang, "en")
		}
	}
}

func TestExecuteFallsBackToConfiguredLanguage(t *testing.T) {
	client := &fakeClient{}
	cfg := testsupport.NewConfig(t, testsupport.WithChunkBytes(8*1024), testsupport.WithLanguage("de-AT"))
	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(cfg.Paths.StagingDir, "townhall.mp3")
	testsupport.WriteFile(t, sourcePath, 8*1024)
	job, err := store.NewJob(context.Background(), sourcePath, "Town Hall", "")
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}

	tr := NewTranscriber(cfg, store, client, logging.NewNop())
	tr.sleeper = func(_ time.Duration) {}
	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if langs := client.requestLanguages(); len(langs) != 1 || langs[0] != "de" {
		t.Errorf("request languages = %v, want [de]", langs)
	}
}

func TestExecuteRejectsUnusableLanguage(t *testing.T) {
	client := &fakeClient{}
	tr, job := newStageFixture(t, 8*1024, client)
	job.Language = "zz-not-a-language!"

	err := tr.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for unusable language tag")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation classification, got %v", err)
	}
	if client.callCount() != 0 {
		t.Error("no chunks should be uploaded with an unusable language")
	}
}

func TestExecuteSkipsSubMinimumChunk(t *testing.T) {
	client := &fakeClient{}
	tr, job := newStageFixture(t, 8*1024+1000, client) // trailing 1000-byte chunk

	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.callCount() != 1 {
		t.Fatalf("sub-minimum chunk reached the service: %d uploads", client.callCount())
	}

	var result Result
	if err := json.Unmarshal([]byte(job.TranscriptJSON), &result); err != nil {
		t.Fatalf("decode transcript payload: %v", err)
	}
	if len(result.ChunkResults) != 2 {
		t.Fatalf("expected 2 chunk results, got %d", len(result.ChunkResults))
	}
	if !result.ChunkResults[1].Skipped {
		t.Error("trailing chunk should be marked skipped")
	}
	if result.ChunkResults[1].Success {
		t.Error("skipped chunk must not count as success")
	}
}

func TestExecuteFailsGateWhenChunksFail(t *testing.T) {
	client := &fakeClient{fail: &whisper.StatusError{StatusCode: http.StatusBadRequest}}
	tr, job := newStageFixture(t, 20*1024, client)

	err := tr.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected success-gate failure")
	}
	var gateErr *InsufficientSuccessError
	if !errors.As(err, &gateErr) {
		t.Fatalf("expected InsufficientSuccessError, got %v", err)
	}
	if status := services.FailureStatus(err); status != queue.StatusFailed {
		t.Errorf("failure status = %s, want %s", status, queue.StatusFailed)
	}
}

func TestExecuteMissingSource(t *testing.T) {
	client := &fakeClient{}
	tr, job := newStageFixture(t, 4*1024, client)
	job.SourcePath = filepath.Join(t.TempDir(), "missing.mp3")

	err := tr.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation classification, got %v", err)
	}
	if client.callCount() != 0 {
		t.Error("no chunks should be uploaded for a missing source")
	}
}

func TestConcurrencyFor(t *testing.T) {
	cases := []struct {
		chunks, max, want int
	}{
		{10, 5, 5},
		{3, 5, 3},
		{5, 5, 5},
		{4, 0, 1},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := concurrencyFor(tc.chunks, tc.max); got != tc.want {
			t.Errorf("concurrencyFor(%d, %d) = %d, want %d", tc.chunks, tc.max, got, tc.want)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	tr := NewTranscriber(cfg, store, &fakeClient{}, logging.NewNop())

	if health := tr.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage: %s", health.Detail)
	}

	tr.client = nil
	if health := tr.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without a client")
	}
}

// flakyClient fails specific chunk uploads with a transient status.
type flakyClient struct {
	fakeClient
	failFilenames map[string]struct{}
}

func (c *flakyClient) Transcribe(ctx context.Context, filename string, audio []byte, language string) (whisper.Result, error) {
	if _, ok := c.failFilenames[filename]; ok {
		return whisper.Result{}, &whisper.StatusError{StatusCode: http.StatusInternalServerError}
	}
	return c.fakeClient.Transcribe(ctx, filename, audio, language)
}

func TestTransientFailures(t *testing.T) {
	results := []ChunkResult{
		{Index: 0, Success: true},
		{Index: 1, Skipped: true},
		{Index: 2, Permanent: true, Error: "http 400"},
		{Index: 3, Error: "http 500"},
		{Index: 4, Error: "connection reset"},
	}
	got := TransientFailures(results)
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("TransientFailures = %v, want [3 4]", got)
	}
	if got := TransientFailures(nil); got != nil {
		t.Errorf("empty input = %v, want nil", got)
	}
}

func TestExecuteRecordsRetryExhaustedChunks(t *testing.T) {
	client := &flakyClient{failFilenames: map[string]struct{}{"chunk_002.mp3": {}}}
	tr, job := newStageFixture(t, 40*1024, client) // five 8K chunks, one fails transiently

	if err := tr.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(job.TranscriptJSON), &result); err != nil {
		t.Fatalf("decode transcript payload: %v", err)
	}
	if len(result.FailedTransient) != 1 || result.FailedTransient[0] != 2 {
		t.Errorf("failed transient chunks = %v, want [2]", result.FailedTransient)
	}
	if result.ChunkResults[2].Permanent {
		t.Error("retry-exhausted chunk must not be marked permanent")
	}
}

func TestJoinTranscriptsSkipsFailures(t *testing.T) {
	results := []ChunkResult{
		{Index: 0, Success: true, Text: " first "},
		{Index: 1, Error: "boom"},
		{Index: 2, Success: true, Text: "third"},
	}
	if got := joinTranscripts(results); got != "first third" {
		t.Errorf("joinTranscripts = %q", got)
	}
	if got := joinTranscripts(nil); got != "" {
		t.Errorf("empty join = %q", got)
	}
}
