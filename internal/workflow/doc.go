// Package workflow drives queued jobs through the transcription and
// segmentation stages. A single processing loop polls the queue, claims the
// oldest actionable job, and runs the stage registered for its status while a
// heartbeat goroutine keeps the claim fresh. Stale claims from crashed
// processes are rolled back to their starting status before each poll.
package workflow
