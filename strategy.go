package experiment

import (
	"sync/atomic"

	"github.com/goliatone/go-errors"
)

// Strategy is pure policy: given a non-empty ConfigSet it decides which
// configuration is primary and which are variants. Strategies never
// execute anything.
type Strategy interface {
	Select(configs ConfigSet) (primary *Config, variants ConfigSet, err error)
}

func emptyConfigsError() error {
	return errors.New("strategy requires at least one configuration", errors.CategoryBadInput).
		WithTextCode(ErrCodeEmptyConfigs)
}

// Single always selects the first configuration and produces no variants.
type Single struct{}

func (Single) Select(configs ConfigSet) (*Config, ConfigSet, error) {
	if len(configs) == 0 {
		return nil, nil, emptyConfigsError()
	}
	return configs[0], nil, nil
}

// Shadow selects the first configuration as primary and runs the rest as
// background variants. Callers are not expected to await them.
type Shadow struct{}

func (Shadow) Select(configs ConfigSet) (*Config, ConfigSet, error) {
	if len(configs) == 0 {
		return nil, nil, emptyConfigsError()
	}
	return configs[0], configs[1:], nil
}

// MultiBranch partitions like Shadow. The difference is convention, not
// policy: MultiBranch callers are expected to invoke with await enabled so
// every branch's outcome lands in the aggregate result.
type MultiBranch struct{}

func (MultiBranch) Select(configs ConfigSet) (*Config, ConfigSet, error) {
	if len(configs) == 0 {
		return nil, nil, emptyConfigsError()
	}
	return configs[0], configs[1:], nil
}

// RoundRobin rotates the primary through the configuration set, one step
// per invocation, and produces no variants. The counter is scoped to the
// registered experiment and advances atomically under concurrent use.
type RoundRobin struct {
	counter atomic.Uint64
}

func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

func (s *RoundRobin) Select(configs ConfigSet) (*Config, ConfigSet, error) {
	n := uint64(len(configs))
	if n == 0 {
		return nil, nil, emptyConfigsError()
	}
	i := s.counter.Add(1) - 1
	return configs[i%n], nil, nil
}
