// Package transcribe implements the chunked transcription stage: chunk
// planning, concurrency-bounded batch execution with per-chunk retry,
// the dynamic success gate, and timeline reconciliation across chunks.
package transcribe
