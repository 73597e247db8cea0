package runner

import (
	"context"

	experiment "github.com/goliatone/go-experiment"
)

// Future is the handle for an invocation scheduled in the background. It
// bridges the asynchronous execution back to a synchronous caller: Await
// blocks without any cooperative scheduler to deadlock, and Done lets
// select-based callers compose it.
type Future struct {
	done chan struct{}
	res  *experiment.AggregateResult
	err  error
}

// Done is closed once the invocation has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the invocation finishes or ctx expires.
func (f *Future) Await(ctx context.Context) (*experiment.AggregateResult, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go schedules a whole invocation in the background and returns its
// Future. The invocation itself is detached from the caller's
// cancellation, matching the no-cancellation model of scheduled branches.
func (r *Runner) Go(ctx context.Context, name string, input any, opts ...CallOption) *Future {
	f := &Future{done: make(chan struct{})}
	r.background.Add(1)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer r.background.Done()
		defer close(f.done)
		f.res, f.err = r.Invoke(bg, name, input, opts...)
	}()
	return f
}

// Go schedules an invocation on the default runner.
func Go(ctx context.Context, name string, input any, opts ...CallOption) *Future {
	return Default.Go(ctx, name, input, opts...)
}
