package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateExpand_NoMultiValuedFields(t *testing.T) {
	tpl := Template{"model": "small", "temperature": 0.2}

	configs, err := tpl.Expand()
	require.NoError(t, err)
	require.Len(t, configs, 1)

	v, ok := configs[0].Value("model")
	require.True(t, ok)
	assert.Equal(t, "small", v)
}

func TestTemplateExpand_CartesianProduct(t *testing.T) {
	tpl := Template{
		"model":       Values("small", "large"),
		"temperature": Values(0.0, 0.5, 1.0),
		"dataset":     "eval-v1",
	}

	configs, err := tpl.Expand()
	require.NoError(t, err)
	require.Len(t, configs, 6)

	// ids must be distinct when content differs
	seen := map[string]bool{}
	for _, cfg := range configs {
		assert.False(t, seen[cfg.ID()], "duplicate id %s", cfg.ID())
		seen[cfg.ID()] = true

		v, ok := cfg.Value("dataset")
		require.True(t, ok)
		assert.Equal(t, "eval-v1", v)
	}
}

func TestTemplateExpand_OdometerOrdering(t *testing.T) {
	// sorted paths: a before b, so b varies fastest
	tpl := Template{
		"a": Values(1, 2),
		"b": Values(10, 20),
	}

	configs, err := tpl.Expand()
	require.NoError(t, err)
	require.Len(t, configs, 4)

	var got [][2]any
	for _, cfg := range configs {
		a, _ := cfg.Value("a")
		b, _ := cfg.Value("b")
		got = append(got, [2]any{a, b})
	}
	assert.Equal(t, [][2]any{{1, 10}, {1, 20}, {2, 10}, {2, 20}}, got)
}

func TestTemplateExpand_NestedTemplates(t *testing.T) {
	tpl := Template{
		"llm": Template{
			"model":       Values("small", "large"),
			"temperature": 0.7,
		},
		"retries": 3,
	}

	configs, err := tpl.Expand()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	v, ok := configs[0].Value("llm.temperature")
	require.True(t, ok)
	assert.Equal(t, 0.7, v)

	m, ok := configs[0].Value("llm.model")
	require.True(t, ok)
	assert.Equal(t, "small", m)
}

func TestTemplateExpand_EmptyMultiValuedFieldFails(t *testing.T) {
	tpl := Template{"model": Values()}

	_, err := tpl.Expand()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestTemplateExpand_IdenticalContentSharesID(t *testing.T) {
	a, err := Template{"x": 1, "y": "z"}.Expand()
	require.NoError(t, err)
	b, err := Template{"y": "z", "x": 1}.Expand()
	require.NoError(t, err)

	assert.Equal(t, a[0].ID(), b[0].ID())
}

func TestRange(t *testing.T) {
	assert.Equal(t, []any{1.0, 2.0, 3.0}, Range(1, 3, 1).candidates())
	assert.Equal(t, []any{3.0, 2.0, 1.0}, Range(3, 1, -1).candidates())
	assert.Empty(t, Range(1, 3, 0).candidates())
}

func TestSeq_ConsumedOnce(t *testing.T) {
	pulls := 0
	src := func(yield func(any) bool) {
		pulls++
		for _, v := range []any{1, 2, 3} {
			if !yield(v) {
				return
			}
		}
	}

	tpl := Template{"n": Seq(src)}

	first, err := tpl.Expand()
	require.NoError(t, err)
	second, err := tpl.Expand()
	require.NoError(t, err)

	assert.Len(t, first, 3)
	assert.Len(t, second, 3)
	assert.Equal(t, 1, pulls, "single-use sequence must be materialized exactly once")
}

func TestExpandAll_PreservesTemplateOrder(t *testing.T) {
	configs, err := ExpandAll(
		Template{"x": 1},
		Template{"x": Values(2, 3)},
	)
	require.NoError(t, err)
	require.Len(t, configs, 3)

	v, _ := configs[0].Value("x")
	assert.Equal(t, 1, v)
}
