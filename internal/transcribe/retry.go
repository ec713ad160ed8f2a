package transcribe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"scribe/internal/services/whisper"
)

// rateLimitFallbackDelay is used for rate-limit failures when the service
// supplies no reset hint.
const rateLimitFallbackDelay = 2 * time.Second

// isPermanentFailure classifies a transcription error. Malformed-request,
// authorization, and payload-too-large responses will fail identically on
// every attempt; everything else (rate limits, server errors, transport
// failures) is worth retrying.
func isPermanentFailure(err error) bool {
	var statusErr *whisper.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.StatusCode {
	case http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusRequestEntityTooLarge:
		return true
	default:
		return false
	}
}

// backoffForAttempt computes the delay before retrying a transient failure.
// Rate-limit responses wait for the service's reset hint (fixed fallback when
// absent); all other transient failures back off exponentially from one
// second: attempt 0 -> 1s, attempt 1 -> 2s, attempt 2 -> 4s.
func backoffForAttempt(err error, attempt int) time.Duration {
	var statusErr *whisper.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		if statusErr.RetryAfter > 0 {
			return statusErr.RetryAfter
		}
		return rateLimitFallbackDelay
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

// transcribeWithRetry drives the sequential per-chunk retry loop: permanent
// failures return immediately, transient failures retry up to maxRetries
// times reusing the same chunk bytes, and the last error survives
// exhaustion. Sleeps honor context cancellation.
func (t *Transcriber) transcribeWithRetry(ctx context.Context, filename string, audio []byte, language string, maxRetries int) (whisper.Result, bool, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := t.client.Transcribe(ctx, filename, audio, language)
		if err == nil {
			return result, false, nil
		}
		if isPermanentFailure(err) {
			return whisper.Result{}, true, err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		if err := t.sleep(ctx, backoffForAttempt(err, attempt)); err != nil {
			return whisper.Result{}, false, err
		}
	}
	return whisper.Result{}, false, lastErr
}

func (t *Transcriber) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if t.sleeper != nil {
		t.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
