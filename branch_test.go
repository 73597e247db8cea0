package experiment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranch_Lifecycle(t *testing.T) {
	cfg := NewConfig(map[string]any{"x": 1})

	b := StartBranch(cfg)
	assert.Equal(t, StatusPending, b.Status)
	assert.Zero(t, b.Duration())

	b.Succeed(42)
	assert.Equal(t, StatusSuccess, b.Status)
	assert.Equal(t, 42, b.Output)
	assert.False(t, b.EndedAt.IsZero())
	assert.GreaterOrEqual(t, b.Duration(), time.Duration(0))
}

func TestBranch_Failure(t *testing.T) {
	sentinel := errors.New("model unavailable")

	b := StartBranch(NewConfig(map[string]any{"x": 1}))
	b.Fail(sentinel)

	assert.Equal(t, StatusFailed, b.Status)
	assert.ErrorIs(t, b.Err, sentinel)
}

func TestBranch_DoubleFinalizationPanics(t *testing.T) {
	b := StartBranch(NewConfig(map[string]any{"x": 1}))
	b.Succeed(1)

	assert.Panics(t, func() { b.Succeed(2) })
	assert.Panics(t, func() { b.Fail(errors.New("late")) })
}

func TestAggregateResult_Filters(t *testing.T) {
	ok := StartBranch(NewConfig(map[string]any{"x": 1}))
	ok.Succeed(1)
	bad := StartBranch(NewConfig(map[string]any{"x": 2}))
	bad.Fail(errors.New("boom"))

	res := &AggregateResult{
		Primary:  ok,
		Variants: []*Branch{ok, bad},
	}

	require.Len(t, res.Successful(), 1)
	require.Len(t, res.Failed(), 1)
	assert.Same(t, bad, res.Failed()[0])
}

func TestCase_PinFirstWriteWins(t *testing.T) {
	first := NewConfig(map[string]any{"x": 1})
	second := NewConfig(map[string]any{"x": 2})

	c := NewCase()
	assert.NotEmpty(t, c.ID())

	pinned := c.Pin("outer", first)
	assert.Same(t, first, pinned)

	// repeated resolution keeps the original assignment
	pinned = c.Pin("outer", second)
	assert.Same(t, first, pinned)

	got, ok := c.Lookup("outer")
	require.True(t, ok)
	assert.Same(t, first, got)

	snap := c.Snapshot()
	assert.Equal(t, map[string]string{"outer": first.ID()}, snap)
}
