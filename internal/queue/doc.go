// Package queue persists transcription jobs in SQLite and exposes the status
// transitions the workflow manager drives them through.
package queue
