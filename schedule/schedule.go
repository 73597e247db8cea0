// Package schedule re-invokes registered experiments on a cron cadence,
// which is how long-running tuning loops keep collecting branch
// comparisons without a caller in the loop.
package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goliatone/go-experiment/runner"

	rcron "github.com/robfig/cron/v3"
)

// Logger interface shared across packages
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Subscription is the handle for one scheduled experiment.
type Subscription interface {
	Unsubscribe()
}

// Scheduler wraps cron scheduling around a Runner.
type Scheduler struct {
	mu           sync.Mutex
	cron         *rcron.Cron
	runner       *runner.Runner
	location     *time.Location
	logger       Logger
	errorHandler func(error)
}

// Option defines the functional option type for Scheduler.
type Option func(*Scheduler)

// WithRunner sets the runner used for scheduled invocations. The default
// runner is used otherwise.
func WithRunner(r *runner.Runner) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithLocation sets the timezone location for the scheduler.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.location = loc
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(logger Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithErrorHandler sets a custom handler for scheduled invocation errors.
func WithErrorHandler(handler func(error)) Option {
	return func(s *Scheduler) {
		s.errorHandler = handler
	}
}

// New creates a scheduler instance with the provided options.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:   runner.Default,
		location: time.Local,
		errorHandler: func(err error) {
			log.Printf("schedule error: %v\n", err)
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.cron = rcron.New(rcron.WithLocation(s.location))
	return s
}

// Schedule invokes the named experiment on the given cron expression.
// Primary branch failures go to the error handler; they have no direct
// caller to propagate to.
func (s *Scheduler) Schedule(expr, name string, input any, callOpts ...runner.CallOption) (Subscription, error) {
	if expr == "" {
		return nil, fmt.Errorf("cron expression cannot be empty")
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		if _, err := s.runner.Invoke(context.Background(), name, input, callOpts...); err != nil {
			s.errorHandler(err)
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled experiment %q completed", name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule experiment %q: %w", name, err)
	}

	return &subscription{scheduler: s, entryID: entryID}, nil
}

// Start begins executing scheduled experiments.
func (s *Scheduler) Start(_ context.Context) error {
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for in-flight scheduled invocations.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type subscription struct {
	scheduler *Scheduler
	entryID   rcron.EntryID
	once      sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.scheduler.mu.Lock()
		defer s.scheduler.mu.Unlock()
		s.scheduler.cron.Remove(s.entryID)
	})
}

// Entries reports how many schedules are currently registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
