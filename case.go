package experiment

import (
	"sync"

	"github.com/google/uuid"
)

// Case is the per-invocation record pinning each participating experiment
// to one configuration. An entry is fixed the first time it is resolved
// and never changes for the rest of the invocation, which is what keeps
// nested branch combinations consistent.
type Case struct {
	id string

	mu       sync.Mutex
	assigned map[string]*Config
}

func NewCase() *Case {
	return &Case{
		id:       uuid.NewString(),
		assigned: make(map[string]*Config),
	}
}

func (c *Case) ID() string { return c.id }

// Lookup returns the configuration pinned for the named experiment.
func (c *Case) Lookup(name string) (*Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, ok := c.assigned[name]
	return cfg, ok
}

// Pin records cfg for the named experiment. First write wins: if an entry
// already exists it is returned unchanged, so repeated resolution within
// one case always sees the same configuration.
func (c *Case) Pin(name string, cfg *Config) *Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.assigned[name]; ok {
		return existing
	}
	c.assigned[name] = cfg
	return cfg
}

// Snapshot maps each pinned experiment to its configuration id.
func (c *Case) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.assigned))
	for name, cfg := range c.assigned {
		out[name] = cfg.ID()
	}
	return out
}
