package services

import (
	"errors"
	"fmt"
	"strings"

	"scribe/internal/queue"
)

// Sentinel markers classify stage failures so the workflow manager can decide
// whether a job lands in review or plain failed state. Every error a stage
// returns should wrap exactly one of these.
var (
	ErrExternalService = errors.New("external service error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTransient       = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with stage/operation context.
// A nil marker is treated as transient, since an unclassified failure is
// safest to retry.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinContext(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// reviewMarkers name the failure classes that need a human decision rather
// than an automatic retry.
var reviewMarkers = []error{ErrValidation, ErrConfiguration, ErrNotFound}

// FailureStatus maps a stage error to the queue status to persist for the job.
func FailureStatus(err error) queue.Status {
	for _, marker := range reviewMarkers {
		if errors.Is(err, marker) {
			return queue.StatusReview
		}
	}
	return queue.StatusFailed
}

func joinContext(values ...string) string {
	kept := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
