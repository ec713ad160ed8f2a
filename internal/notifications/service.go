package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scribe/internal/config"
)

const userAgent = "Scribe-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobQueued(ctx context.Context, title string) error
	NotifyTranscriptionComplete(ctx context.Context, title string, chunksSucceeded, chunksTotal int) error
	NotifyJobCompleted(ctx context.Context, title string, topics int) error
	NotifyJobDegraded(ctx context.Context, title, analysisError string) error
	NotifyJobFailed(ctx context.Context, title, errorMessage string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
// Per-event toggles in the configuration suppress individual notifications.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		events:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, title string) error {
	if !n.events.JobQueued {
		return nil
	}
	data := payload{
		title:   "Scribe - Job Queued",
		message: fmt.Sprintf("Queued for transcription: %s", strings.TrimSpace(title)),
		tags:    []string{"scribe", "queue", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTranscriptionComplete(ctx context.Context, title string, chunksSucceeded, chunksTotal int) error {
	if !n.events.Transcription {
		return nil
	}
	data := payload{
		title:   "Scribe - Transcribed",
		message: fmt.Sprintf("Transcription complete: %s (%d/%d chunks)", strings.TrimSpace(title), chunksSucceeded, chunksTotal),
		tags:    []string{"scribe", "transcribe", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, title string, topics int) error {
	if !n.events.Completion {
		return nil
	}
	data := payload{
		title:    "Scribe - Complete",
		message:  fmt.Sprintf("Transcript ready: %s (%d topics)", strings.TrimSpace(title), topics),
		tags:     []string{"scribe", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobDegraded(ctx context.Context, title, analysisError string) error {
	if !n.events.Completion {
		return nil
	}
	message := fmt.Sprintf("Transcript ready without topics: %s", strings.TrimSpace(title))
	if analysisError = strings.TrimSpace(analysisError); analysisError != "" {
		message = fmt.Sprintf("%s\nSegmentation error: %s", message, analysisError)
	}
	data := payload{
		title:   "Scribe - Complete (no topics)",
		message: message,
		tags:    []string{"scribe", "workflow", "degraded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, title, errorMessage string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Job failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(": ")
		builder.WriteString(title)
	}
	if errorMessage = strings.TrimSpace(errorMessage); errorMessage != "" {
		builder.WriteString("\n")
		builder.WriteString(errorMessage)
	}
	data := payload{
		title:    "Scribe - Error",
		message:  builder.String(),
		tags:     []string{"scribe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scribe - Test",
		message:  "Notification system test",
		tags:     []string{"scribe", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, string) error                      { return nil }
func (noopService) NotifyTranscriptionComplete(context.Context, string, int, int) error { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, int) error              { return nil }
func (noopService) NotifyJobDegraded(context.Context, string, string) error            { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
