package experiment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-errors"
)

// Func is the erased execution form of a registered experiment function.
// Typed adapters produce it from strongly typed signatures.
type Func func(ctx context.Context, input any, cfg *Config) (any, error)

// Experiment is one registered function together with its expanded
// configuration set, selection strategy, and declared dependencies on
// other registered experiments it invokes.
type Experiment struct {
	name     string
	fn       Func
	configs  ConfigSet
	strategy Strategy
	deps     []string
	bindPath string
}

func (e *Experiment) Name() string       { return e.name }
func (e *Experiment) Strategy() Strategy { return e.strategy }

// Configs returns the expanded configuration set in registration order.
func (e *Experiment) Configs() ConfigSet {
	out := make(ConfigSet, len(e.configs))
	copy(out, e.configs)
	return out
}

// Dependencies lists the registered experiments this one invokes, declared
// at registration time so the runner can pre-size execution cases without
// inspecting source.
func (e *Experiment) Dependencies() []string {
	out := make([]string, len(e.deps))
	copy(out, e.deps)
	return out
}

// Call executes the experiment body under cfg, applying the declared bind
// path first.
func (e *Experiment) Call(ctx context.Context, input any, cfg *Config) (any, error) {
	if e.bindPath != "" {
		scoped, err := cfg.View(e.bindPath)
		if err != nil {
			return nil, err
		}
		cfg = scoped
	}
	return e.fn(ctx, input, cfg)
}

type registration struct {
	templates []Template
	configs   ConfigSet
	strategy  Strategy
	deps      []string
	bindPath  string
	replace   bool
}

// RegisterOption configures one registration.
type RegisterOption func(*registration)

// WithTemplates declares configuration templates, expanded at registration
// time in the order given.
func WithTemplates(tpls ...Template) RegisterOption {
	return func(r *registration) { r.templates = append(r.templates, tpls...) }
}

// WithConfigs declares pre-expanded configurations, appended after any
// template expansions.
func WithConfigs(cfgs ...*Config) RegisterOption {
	return func(r *registration) { r.configs = append(r.configs, cfgs...) }
}

// WithStrategy sets the primary/variant selection policy. Single is the
// default.
func WithStrategy(s Strategy) RegisterOption {
	return func(r *registration) { r.strategy = s }
}

// WithDependencies declares the registered experiments this function
// invokes, so nested invocations get a consistent case assignment.
func WithDependencies(names ...string) RegisterOption {
	return func(r *registration) { r.deps = append(r.deps, names...) }
}

// WithBindPath scopes binding to a configuration subtree instead of the
// whole configuration.
func WithBindPath(path string) RegisterOption {
	return func(r *registration) { r.bindPath = path }
}

// WithReplace permits re-registration under an existing name.
func WithReplace() RegisterOption {
	return func(r *registration) { r.replace = true }
}

// Registry is the process-wide lookup from experiment name to its declared
// configuration set and strategy.
type Registry struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment
}

func NewRegistry() *Registry {
	return &Registry{experiments: make(map[string]*Experiment)}
}

// Register expands the declared templates and stores the experiment.
// Registering an existing name is a conflict unless WithReplace is given.
func (r *Registry) Register(name string, fn Func, opts ...RegisterOption) (*Experiment, error) {
	if name == "" {
		return nil, errors.New("experiment name cannot be empty", errors.CategoryBadInput).
			WithTextCode(ErrCodeNotFound)
	}
	if fn == nil {
		return nil, errors.New("experiment function cannot be nil", errors.CategoryBadInput).
			WithTextCode(ErrCodeNilFunction)
	}

	reg := &registration{}
	for _, opt := range opts {
		if opt != nil {
			opt(reg)
		}
	}

	configs, err := ExpandAll(reg.templates...)
	if err != nil {
		return nil, err
	}
	configs = append(configs, reg.configs...)

	if reg.strategy == nil {
		reg.strategy = Single{}
	}

	exp := &Experiment{
		name:     name,
		fn:       fn,
		configs:  configs,
		strategy: reg.strategy,
		deps:     reg.deps,
		bindPath: reg.bindPath,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[name]; exists && !reg.replace {
		return nil, errors.New(fmt.Sprintf("experiment %q already registered", name), errors.CategoryConflict).
			WithTextCode(ErrCodeAlreadyRegistered)
	}
	r.experiments[name] = exp

	return exp, nil
}

// Lookup returns the experiment registered under name.
func (r *Registry) Lookup(name string) (*Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.experiments[name]
	if !ok {
		return nil, errors.New(fmt.Sprintf("no experiment registered under %q", name), errors.CategoryBadInput).
			WithTextCode(ErrCodeNotFound)
	}
	return exp, nil
}

// Names lists the registered experiment names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.experiments))
	for name := range r.experiments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// Register adds an experiment to the default registry.
func Register(name string, fn Func, opts ...RegisterOption) (*Experiment, error) {
	return Default.Register(name, fn, opts...)
}

// MustRegister is Register panicking on error, for package init blocks.
func MustRegister(name string, fn Func, opts ...RegisterOption) *Experiment {
	exp, err := Register(name, fn, opts...)
	if err != nil {
		panic(err)
	}
	return exp
}
