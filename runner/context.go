package runner

import (
	"context"

	experiment "github.com/goliatone/go-experiment"
)

type caseKey struct{}

// WithCase attaches an execution case to the context. The runner does this
// at every concurrency boundary it controls; case propagation is always an
// explicit copy, never inherited implicitly by a spawned goroutine.
func WithCase(ctx context.Context, c *experiment.Case) context.Context {
	return context.WithValue(ctx, caseKey{}, c)
}

// CaseFromContext returns the execution case active on this call tree, if
// any. A nested invocation inside an active case resolves its pinned
// configuration instead of fanning out again.
func CaseFromContext(ctx context.Context) (*experiment.Case, bool) {
	c, ok := ctx.Value(caseKey{}).(*experiment.Case)
	return c, ok
}
