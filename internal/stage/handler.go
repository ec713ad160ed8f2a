package stage

import (
	"context"

	"scribe/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}
