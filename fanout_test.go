package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectNames(c *MemoryCollector) []string {
	var names []string
	for _, ev := range c.Events() {
		names = append(names, ev.Function)
	}
	return names
}

func TestFanout_ExactMatch(t *testing.T) {
	f := NewFanout()
	mem := NewMemoryCollector()
	f.Subscribe("llm.summarize", mem)

	f.Collect(context.Background(), Event{Function: "llm.summarize"})
	f.Collect(context.Background(), Event{Function: "llm.translate"})

	assert.Equal(t, []string{"llm.summarize"}, collectNames(mem))
}

func TestFanout_SingleSegmentWildcard(t *testing.T) {
	f := NewFanout()
	mem := NewMemoryCollector()
	f.Subscribe("llm.*", mem)

	f.Collect(context.Background(), Event{Function: "llm.summarize"})
	f.Collect(context.Background(), Event{Function: "llm.chat.stream"})
	f.Collect(context.Background(), Event{Function: "search"})

	assert.Equal(t, []string{"llm.summarize"}, collectNames(mem))
}

func TestFanout_MultiSegmentWildcard(t *testing.T) {
	f := NewFanout()
	all := NewMemoryCollector()
	prefixed := NewMemoryCollector()
	f.Subscribe("#", all)
	f.Subscribe("llm.#", prefixed)

	f.Collect(context.Background(), Event{Function: "llm.chat.stream"})
	f.Collect(context.Background(), Event{Function: "search"})

	assert.Equal(t, []string{"llm.chat.stream", "search"}, collectNames(all))
	assert.Equal(t, []string{"llm.chat.stream"}, collectNames(prefixed))
}

func TestFanout_PrefixWildcardMatchesPrefixItself(t *testing.T) {
	f := NewFanout()
	mem := NewMemoryCollector()
	f.Subscribe("llm.#", mem)

	f.Collect(context.Background(), Event{Function: "llm"})

	assert.Equal(t, []string{"llm"}, collectNames(mem))
}

func TestFanout_Unsubscribe(t *testing.T) {
	f := NewFanout()
	mem := NewMemoryCollector()
	sub := f.Subscribe("#", mem)

	f.Collect(context.Background(), Event{Function: "first"})
	sub.Unsubscribe()
	f.Collect(context.Background(), Event{Function: "second"})
	// repeated unsubscribe is a no-op
	sub.Unsubscribe()

	assert.Equal(t, []string{"first"}, collectNames(mem))
}

func TestFanout_MultipleSubscribersInOrder(t *testing.T) {
	f := NewFanout()
	first := NewMemoryCollector()
	second := NewMemoryCollector()
	f.Subscribe("#", first)
	f.Subscribe("#", second)

	f.Collect(context.Background(), Event{Function: "shared"})

	require.Len(t, first.Events(), 1)
	require.Len(t, second.Events(), 1)
}
