package transcribe

import "fmt"

// InsufficientSuccessError is job-fatal: too few chunks transcribed for the
// merged transcript to be trustworthy.
type InsufficientSuccessError struct {
	Successful int
	Total      int
	Required   float64
}

func (e *InsufficientSuccessError) Error() string {
	return fmt.Sprintf("transcription success rate too low: %d/%d chunks succeeded, need %.0f%%",
		e.Successful, e.Total, e.Required*100)
}

// RequiredSuccessRatio returns the minimum fraction of submitted chunks that
// must transcribe successfully for the job to proceed. Small jobs get zero
// tolerance; large jobs tolerate at most 3 failed chunks with a 60% floor.
func RequiredSuccessRatio(totalChunks int) float64 {
	switch {
	case totalChunks <= 3:
		return 1.0
	case totalChunks <= 5:
		return 0.8
	case totalChunks <= 10:
		return 0.7
	default:
		threshold := 1.0 - 3.0/float64(totalChunks)
		if threshold < 0.6 {
			return 0.6
		}
		return threshold
	}
}

// CheckSuccessGate compares the actual success ratio against the required
// threshold, returning an InsufficientSuccessError when unmet. A job with
// zero submitted chunks fails the gate outright.
func CheckSuccessGate(successful, total int) error {
	if total <= 0 {
		return &InsufficientSuccessError{Successful: 0, Total: 0, Required: 1.0}
	}
	required := RequiredSuccessRatio(total)
	if ratio := float64(successful) / float64(total); ratio < required {
		return &InsufficientSuccessError{Successful: successful, Total: total, Required: required}
	}
	return nil
}
