package experiment

import (
	"context"
	"strings"
	"sync"
)

// Subscription is the handle for one fanout subscriber.
type Subscription interface {
	Unsubscribe()
}

// Fanout is a Collector that forwards every event to each subscribed
// collector whose pattern matches the experiment name. Patterns are dot
// separated: "*" matches exactly one segment and "#" matches any number
// of segments, so "llm.#" covers every experiment under the llm prefix
// and "#" alone covers everything.
type Fanout struct {
	mu      sync.RWMutex
	entries []*fanoutEntry
	nextID  uint64
}

type fanoutEntry struct {
	id        uint64
	pattern   string
	parts     []string
	collector Collector
}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Subscribe routes matching events to c until the subscription is
// cancelled. Subscribers are notified in subscription order.
func (f *Fanout) Subscribe(pattern string, c Collector) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	entry := &fanoutEntry{
		id:        f.nextID,
		pattern:   pattern,
		parts:     strings.Split(pattern, "."),
		collector: c,
	}
	f.entries = append(f.entries, entry)

	return &fanoutSub{fanout: f, id: entry.id}
}

// Collect implements Collector. Matching happens under a read lock;
// delivery happens outside it so a slow subscriber never blocks
// subscription changes.
func (f *Fanout) Collect(ctx context.Context, ev Event) {
	nameParts := strings.Split(ev.Function, ".")

	f.mu.RLock()
	matched := make([]Collector, 0, len(f.entries))
	for _, entry := range f.entries {
		if entry.pattern == ev.Function || matchSegments(entry.parts, nameParts) {
			matched = append(matched, entry.collector)
		}
	}
	f.mu.RUnlock()

	for _, c := range matched {
		c.Collect(ctx, ev)
	}
}

type fanoutSub struct {
	fanout *Fanout
	id     uint64
	once   sync.Once
}

func (s *fanoutSub) Unsubscribe() {
	s.once.Do(func() {
		s.fanout.mu.Lock()
		defer s.fanout.mu.Unlock()
		for i, entry := range s.fanout.entries {
			if entry.id == s.id {
				s.fanout.entries = append(s.fanout.entries[:i], s.fanout.entries[i+1:]...)
				return
			}
		}
	})
}

// matchSegments matches pattern segments against name segments, with
// "#" allowed anywhere in the pattern.
func matchSegments(patternParts, nameParts []string) bool {
	pLen, nLen := len(patternParts), len(nameParts)

	dp := make([]bool, nLen+1)
	prev := make([]bool, nLen+1)

	prev[0] = true

	for i := 1; i <= pLen; i++ {
		pPart := patternParts[i-1]
		// dp[0] stays true only while the pattern prefix is all "#",
		// which is the only way to match an empty name
		if pPart == "#" {
			dp[0] = prev[0]
		} else {
			dp[0] = false
		}

		for j := 1; j <= nLen; j++ {
			switch pPart {
			case "#":
				dp[j] = prev[j] || dp[j-1]
			case "*":
				dp[j] = prev[j-1]
			default:
				dp[j] = prev[j-1] && pPart == nameParts[j-1]
			}
		}
		copy(prev, dp)
	}

	return prev[nLen]
}
