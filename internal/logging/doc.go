// Package logging centralizes slog construction and the structured field
// conventions shared by the daemon, the CLI, and the pipeline stages.
package logging
