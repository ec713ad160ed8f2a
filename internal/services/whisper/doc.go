// Package whisper wraps the remote speech-to-text capability. It uploads one
// audio chunk per request and asks for segment-level timestamps so the caller
// can reconcile chunk-relative times into a single timeline.
package whisper
