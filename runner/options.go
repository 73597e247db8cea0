package runner

import (
	"runtime"

	experiment "github.com/goliatone/go-experiment"
)

// Option configures a Runner.
type Option func(*Runner)

// WithRegistry sets the registry consulted for lookups and nested
// resolution. The process-wide default registry is used otherwise.
func WithRegistry(r *experiment.Registry) Option {
	return func(run *Runner) {
		if r != nil {
			run.registry = r
		}
	}
}

// WithCollector sets the telemetry collector. A no-op collector is the
// default.
func WithCollector(c experiment.Collector) Option {
	return func(run *Runner) {
		if c != nil {
			run.collector = c
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l Logger) Option {
	return func(run *Runner) {
		run.logger = l
	}
}

// WithMaxConcurrent bounds how many variant branches run at once across
// the whole runner. Defaults to GOMAXPROCS.
func WithMaxConcurrent(n int) Option {
	return func(run *Runner) {
		if n > 0 {
			run.maxConcurrent = n
		}
	}
}

func defaultMaxConcurrent() int {
	return runtime.GOMAXPROCS(0)
}

type callOptions struct {
	awaitVariants bool
}

// CallOption configures one invocation.
type CallOption func(*callOptions)

// WithAwaitVariants makes the invocation block until every variant branch
// finalizes and return them in the aggregate result. Without it variants
// run fire-and-forget and Variants stays empty.
func WithAwaitVariants(await bool) CallOption {
	return func(o *callOptions) {
		o.awaitVariants = await
	}
}
