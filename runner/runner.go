package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-errors"
	experiment "github.com/goliatone/go-experiment"
)

// Runner orchestrates one invocation end to end: it resolves the execution
// case, runs the primary branch inline in the caller's control flow, fans
// the variant branches out on a bounded budget, and assembles the
// aggregate result.
type Runner struct {
	registry      *experiment.Registry
	collector     experiment.Collector
	logger        Logger
	maxConcurrent int
	sem           chan struct{}
	background    sync.WaitGroup
}

// New constructs a Runner, applying defaults for anything unset.
func New(opts ...Option) *Runner {
	r := &Runner{
		registry:      experiment.Default,
		collector:     experiment.NoopCollector{},
		maxConcurrent: defaultMaxConcurrent(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = normalizeLogger(r.logger)
	r.sem = make(chan struct{}, r.maxConcurrent)
	return r
}

// Invoke runs the named experiment with the given input. The primary
// branch executes synchronously and its error propagates to the caller
// unchanged; variant branches never surface theirs outside the branch
// record. With WithAwaitVariants(true) the call blocks until every variant
// finalizes and returns them in enumeration order.
func (r *Runner) Invoke(ctx context.Context, name string, input any, opts ...CallOption) (*experiment.AggregateResult, error) {
	var call callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&call)
		}
	}

	exp, err := r.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	// nested invocation: an active case means an outer branch is already
	// running, so resolve the pinned configuration and execute inline
	if c, ok := CaseFromContext(ctx); ok {
		return r.invokeNested(ctx, c, exp, input)
	}

	primaryCase, variantCases, err := r.enumerate(exp)
	if err != nil {
		return nil, err
	}

	primary, primaryErr := r.executeBranch(WithCase(ctx, primaryCase), primaryCase, exp, input, false)
	agg := &experiment.AggregateResult{Primary: primary}

	variants := make([]*experiment.Branch, len(variantCases))
	var wg sync.WaitGroup
	for i, vc := range variantCases {
		wg.Add(1)
		r.background.Add(1)
		// the variant context is an explicit copy: case attached, caller
		// cancellation detached so a scheduled branch runs to completion
		vctx := WithCase(context.WithoutCancel(ctx), vc)
		go func(i int, vc *experiment.Case, ctx context.Context) {
			defer wg.Done()
			defer r.background.Done()
			r.sem <- struct{}{}
			defer func() { <-r.sem }()
			b, _ := r.executeBranch(ctx, vc, exp, input, true)
			variants[i] = b
		}(i, vc, vctx)
	}

	if call.awaitVariants {
		wg.Wait()
		agg.Variants = variants
	}

	if primaryErr != nil {
		return agg, primaryErr
	}
	return agg, nil
}

// invokeNested executes inside an already running case: the configuration
// pinned for this experiment is reused, or resolved via its strategy and
// pinned on first use, so repeated resolution within one case always sees
// the same configuration.
func (r *Runner) invokeNested(ctx context.Context, c *experiment.Case, exp *experiment.Experiment, input any) (*experiment.AggregateResult, error) {
	cfg, ok := c.Lookup(exp.Name())
	if !ok {
		primary, _, err := exp.Strategy().Select(exp.Configs())
		if err != nil {
			return nil, strategyError(err, exp.Name())
		}
		cfg = c.Pin(exp.Name(), primary)
	}

	b := experiment.StartBranch(cfg)
	out, err := exp.Call(ctx, input, cfg)
	if err != nil {
		b.Fail(err)
	} else {
		b.Succeed(out)
	}
	r.collect(ctx, c, exp, b)

	return &experiment.AggregateResult{Primary: b}, err
}

// enumerate builds the execution cases for one invocation. Each experiment
// in the entry's declared dependency closure contributes its strategy
// partition; the cases are the cartesian product in odometer order with
// the last experiment varying fastest, and the all-primary combination
// comes first.
func (r *Runner) enumerate(entry *experiment.Experiment) (*experiment.Case, []*experiment.Case, error) {
	var names []string
	options := make(map[string]experiment.ConfigSet)
	visited := make(map[string]bool)

	var walk func(e *experiment.Experiment) error
	walk = func(e *experiment.Experiment) error {
		if visited[e.Name()] {
			return nil
		}
		visited[e.Name()] = true

		primary, variants, err := e.Strategy().Select(e.Configs())
		if err != nil {
			return strategyError(err, e.Name())
		}
		options[e.Name()] = append(experiment.ConfigSet{primary}, variants...)
		names = append(names, e.Name())

		for _, dep := range e.Dependencies() {
			de, err := r.registry.Lookup(dep)
			if err != nil {
				return errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("dependency %q of experiment %q is not registered", dep, e.Name())).
					WithTextCode(experiment.ErrCodeNotFound)
			}
			if err := walk(de); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(entry); err != nil {
		return nil, nil, err
	}

	total := 1
	for _, name := range names {
		total *= len(options[name])
	}

	cases := make([]*experiment.Case, 0, total)
	for i := 0; i < total; i++ {
		c := experiment.NewCase()
		rem := i
		for j := len(names) - 1; j >= 0; j-- {
			opts := options[names[j]]
			c.Pin(names[j], opts[rem%len(opts)])
			rem /= len(opts)
		}
		cases = append(cases, c)
	}

	return cases[0], cases[1:], nil
}

// executeBranch runs the entry experiment under one case and finalizes its
// branch. Variant branches recover panics into the branch error; the
// primary branch lets them unwind.
func (r *Runner) executeBranch(ctx context.Context, c *experiment.Case, exp *experiment.Experiment, input any, recoverPanics bool) (*experiment.Branch, error) {
	cfg, ok := c.Lookup(exp.Name())
	if !ok {
		// enumerate pins every declared participant, so this is the lazy
		// path for a case built outside the runner
		primary, _, err := exp.Strategy().Select(exp.Configs())
		if err != nil {
			return nil, strategyError(err, exp.Name())
		}
		cfg = c.Pin(exp.Name(), primary)
	}

	b := experiment.StartBranch(cfg)

	run := func() (out any, err error) {
		if recoverPanics {
			defer func() {
				if rec := recover(); rec != nil {
					err = panicError(rec)
				}
			}()
		}
		return exp.Call(ctx, input, cfg)
	}

	out, err := run()
	if err != nil {
		b.Fail(err)
	} else {
		b.Succeed(out)
	}
	r.collect(ctx, c, exp, b)

	return b, err
}

func (r *Runner) collect(ctx context.Context, c *experiment.Case, exp *experiment.Experiment, b *experiment.Branch) {
	ev := experiment.Event{
		CaseID:    c.ID(),
		ConfigID:  b.Config.ID(),
		Function:  exp.Name(),
		StartedAt: b.StartedAt,
		EndedAt:   b.EndedAt,
		Status:    b.Status,
	}
	if b.Err != nil {
		ev.Error = b.Err.Error()
	}
	r.collector.Collect(ctx, ev)

	logger := withLoggerFields(r.logger, map[string]any{
		"experiment": exp.Name(),
		"config_id":  b.Config.ID(),
		"case_id":    c.ID(),
		"duration":   b.Duration().String(),
	})
	if b.Status == experiment.StatusFailed {
		logger.Error("branch failed: %v", b.Err)
	} else {
		logger.Debug("branch completed")
	}
}

// Drain blocks until every fire-and-forget variant branch scheduled so far
// has finalized, or the context expires.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func strategyError(err error, name string) error {
	return errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("strategy selection failed for experiment %q", name)).
		WithTextCode(experiment.ErrCodeEmptyConfigs).
		WithMetadata(map[string]any{"experiment": name})
}

// Run invokes the named experiment and returns the primary output typed as
// O. Primary branch errors come back unchanged.
func Run[O any](ctx context.Context, r *Runner, name string, input any, opts ...CallOption) (O, error) {
	var zero O
	res, err := r.Invoke(ctx, name, input, opts...)
	if err != nil {
		return zero, err
	}
	if res.Primary.Output == nil {
		return zero, nil
	}
	out, ok := res.Primary.Output.(O)
	if !ok {
		return zero, errors.New(fmt.Sprintf("primary output %T does not match expected %T", res.Primary.Output, zero), errors.CategoryBadInput).
			WithTextCode(experiment.ErrCodeInvalidInput)
	}
	return out, nil
}

// Default is a process-wide runner over the default registry.
var Default = New()

// Invoke runs an experiment on the default runner.
func Invoke(ctx context.Context, name string, input any, opts ...CallOption) (*experiment.AggregateResult, error) {
	return Default.Invoke(ctx, name, input, opts...)
}
