// Package segment derives LLM-backed topic segments from a reconciled
// transcript and publishes the combined job result. Segmentation failures
// degrade the job to transcription-only output under a configurable fallback
// policy instead of failing it.
package segment
