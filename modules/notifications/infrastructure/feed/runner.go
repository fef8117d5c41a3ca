package feed

import "context"

// Runner is the listener selected by configuration. It is registered as a
// service so the process entrypoint can start it beside the outbox relay.
type Runner struct {
	backend string
	run     func(ctx context.Context) error
}

func NewRunner(backend string, listener interface{ Run(ctx context.Context) error }) *Runner {
	return &Runner{backend: backend, run: listener.Run}
}

func (r *Runner) Backend() string {
	return r.backend
}

func (r *Runner) Run(ctx context.Context) error {
	return r.run(ctx)
}
