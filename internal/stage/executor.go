package stage

import (
	"context"

	"podslice/internal/queue"
)

// Executor describes the contract the workflow manager needs from each
// pipeline stage. Execute runs one single-shot attempt: it reads prior-stage
// artifacts off the job, performs its provider call, and writes only its own
// stage's artifact fields back onto the job in memory. The manager persists
// artifacts and the stage transition atomically; executors never retry and
// never touch the store.
type Executor interface {
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
