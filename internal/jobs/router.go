package jobs

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoHandler is returned by Router for job types nobody registered.
var ErrNoHandler = errors.New("no handler registered for job type")

// Router dispatches jobs to per-type handlers.
type Router struct {
	handlers map[JobType]JobHandler
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[JobType]JobHandler)}
}

// Handle registers h for t, replacing any previous handler.
func (r *Router) Handle(t JobType, h JobHandler) {
	r.handlers[t] = h
}

// Dispatch is a JobHandler that routes by job type.
func (r *Router) Dispatch(ctx context.Context, job *Job) error {
	h, ok := r.handlers[job.Type]
	if !ok {
		return fmt.Errorf("Dispatch %s: %w", job.Type, ErrNoHandler)
	}
	return h(ctx, job)
}
