package transcribe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"scribe/internal/logging"
	"scribe/internal/services/whisper"
)

type scriptedClient struct {
	calls     int
	responses []func() (whisper.Result, error)
}

func (c *scriptedClient) Transcribe(ctx context.Context, filename string, audio []byte, language string) (whisper.Result, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx]()
}

func statusFailure(code int) func() (whisper.Result, error) {
	return func() (whisper.Result, error) {
		return whisper.Result{}, &whisper.StatusError{StatusCode: code}
	}
}

func newRetryTranscriber(client Client) (*Transcriber, *[]time.Duration) {
	delays := &[]time.Duration{}
	t := &Transcriber{
		client: client,
		logger: logging.NewNop(),
		sleeper: func(d time.Duration) {
			*delays = append(*delays, d)
		},
	}
	return t, delays
}

func TestTranscribeWithRetryPermanentFailsFast(t *testing.T) {
	for _, code := range []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusRequestEntityTooLarge,
	} {
		client := &scriptedClient{responses: []func() (whisper.Result, error){statusFailure(code)}}
		tr, delays := newRetryTranscriber(client)

		_, permanent, err := tr.transcribeWithRetry(context.Background(), "chunk_000.mp3", []byte("audio"), "en", 3)
		if err == nil {
			t.Fatalf("status %d: expected error", code)
		}
		if !permanent {
			t.Errorf("status %d: expected permanent classification", code)
		}
		if client.calls != 1 {
			t.Errorf("status %d: expected 1 attempt, got %d", code, client.calls)
		}
		if len(*delays) != 0 {
			t.Errorf("status %d: expected no backoff, got %v", code, *delays)
		}
	}
}

func TestTranscribeWithRetryTransientBackoff(t *testing.T) {
	client := &scriptedClient{responses: []func() (whisper.Result, error){statusFailure(http.StatusInternalServerError)}}
	tr, delays := newRetryTranscriber(client)

	_, permanent, err := tr.transcribeWithRetry(context.Background(), "chunk_000.mp3", []byte("audio"), "en", 3)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if permanent {
		t.Error("server errors are transient, not permanent")
	}
	if client.calls != 4 {
		t.Errorf("expected 4 attempts (1 + 3 retries), got %d", client.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *delays)
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("backoff %d = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestTranscribeWithRetryRateLimitHonorsHint(t *testing.T) {
	client := &scriptedClient{responses: []func() (whisper.Result, error){
		func() (whisper.Result, error) {
			return whisper.Result{}, &whisper.StatusError{
				StatusCode: http.StatusTooManyRequests,
				RetryAfter: 1500 * time.Millisecond,
			}
		},
		func() (whisper.Result, error) {
			return whisper.Result{Text: "ok", Duration: 3}, nil
		},
	}}
	tr, delays := newRetryTranscriber(client)

	result, permanent, err := tr.transcribeWithRetry(context.Background(), "chunk_000.mp3", []byte("audio"), "en", 3)
	if err != nil {
		t.Fatalf("expected recovery after rate limit: %v", err)
	}
	if permanent {
		t.Error("unexpected permanent classification")
	}
	if result.Text != "ok" {
		t.Errorf("unexpected result text %q", result.Text)
	}
	if len(*delays) != 1 || (*delays)[0] != 1500*time.Millisecond {
		t.Errorf("expected single 1.5s wait from the service hint, got %v", *delays)
	}
}

func TestBackoffForAttemptRateLimitFallback(t *testing.T) {
	err := &whisper.StatusError{StatusCode: http.StatusTooManyRequests}
	if got := backoffForAttempt(err, 0); got != rateLimitFallbackDelay {
		t.Errorf("rate limit without hint = %v, want %v", got, rateLimitFallbackDelay)
	}
}

func TestBackoffForAttemptTransportError(t *testing.T) {
	err := errors.New("connection reset")
	if got := backoffForAttempt(err, 2); got != 4*time.Second {
		t.Errorf("transport error attempt 2 = %v, want 4s", got)
	}
	if isPermanentFailure(err) {
		t.Error("transport errors are transient")
	}
}

func TestTranscribeWithRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptedClient{responses: []func() (whisper.Result, error){statusFailure(http.StatusInternalServerError)}}
	tr := &Transcriber{
		client:  client,
		logger:  logging.NewNop(),
		sleeper: func(time.Duration) { cancel() },
	}

	_, _, err := tr.transcribeWithRetry(ctx, "chunk_000.mp3", []byte("audio"), "en", 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d", client.calls)
	}
}
