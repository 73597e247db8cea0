package experiment

import (
	"context"
	"sync"
	"time"
)

// Event is the structured record emitted for every branch, success or
// failure.
type Event struct {
	CaseID    string    `json:"case_id"`
	ConfigID  string    `json:"config_id"`
	Function  string    `json:"function"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Collector receives branch events. Implementations must be safe for
// concurrent use; they are called from variant goroutines.
type Collector interface {
	Collect(ctx context.Context, ev Event)
}

// NoopCollector is the default: telemetry absent, runner behavior
// unchanged.
type NoopCollector struct{}

func (NoopCollector) Collect(context.Context, Event) {}

// MemoryCollector buffers events in memory for inspection, mainly in
// tests.
type MemoryCollector struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

func (c *MemoryCollector) Collect(_ context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of everything collected so far.
func (c *MemoryCollector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *MemoryCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
