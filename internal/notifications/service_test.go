package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/config"
	"scribe/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobCompleted(context.Background(), "Example", 4); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "job queued",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobQueued(context.Background(), "Staff Meeting")
			},
			expectTitle:   "Scribe - Job Queued",
			expectMessage: "Queued for transcription: Staff Meeting",
			expectTags:    "scribe,queue,added",
		},
		{
			name: "transcription complete",
			notify: func(svc notifications.Service) error {
				return svc.NotifyTranscriptionComplete(context.Background(), "Staff Meeting", 9, 10)
			},
			expectTitle:   "Scribe - Transcribed",
			expectMessage: "Transcription complete: Staff Meeting (9/10 chunks)",
			expectTags:    "scribe,transcribe,completed",
		},
		{
			name: "job completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobCompleted(context.Background(), "Staff Meeting", 5)
			},
			expectTitle:    "Scribe - Complete",
			expectMessage:  "Transcript ready: Staff Meeting (5 topics)",
			expectTags:     "scribe,workflow,completed",
			expectPriority: "high",
		},
		{
			name: "job degraded",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobDegraded(context.Background(), "Staff Meeting", "model unavailable")
			},
			expectTitle:   "Scribe - Complete (no topics)",
			expectMessage: "Transcript ready without topics: Staff Meeting\nSegmentation error: model unavailable",
			expectTags:    "scribe,workflow,degraded",
		},
		{
			name: "job failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobFailed(context.Background(), "Staff Meeting", "too many chunks failed")
			},
			expectTitle:    "Scribe - Error",
			expectMessage:  "Job failed: Staff Meeting\ntoo many chunks failed",
			expectTags:     "scribe,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Scribe - Test",
			expectMessage:  "Notification system test",
			expectTags:     "scribe,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.JobQueued = false
	cfg.Notifications.Transcription = false
	cfg.Notifications.Completion = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyJobQueued(ctx, "ignored"); err != nil {
		t.Fatalf("suppressed job queued: %v", err)
	}
	if err := svc.NotifyTranscriptionComplete(ctx, "ignored", 1, 1); err != nil {
		t.Fatalf("suppressed transcription: %v", err)
	}
	if err := svc.NotifyJobCompleted(ctx, "ignored", 2); err != nil {
		t.Fatalf("suppressed completion: %v", err)
	}
	if err := svc.NotifyJobDegraded(ctx, "ignored", ""); err != nil {
		t.Fatalf("suppressed degraded: %v", err)
	}
	if err := svc.NotifyJobFailed(ctx, "ignored", "boom"); err != nil {
		t.Fatalf("suppressed failure: %v", err)
	}
}
