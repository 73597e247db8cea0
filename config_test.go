package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_StableID(t *testing.T) {
	a := NewConfig(map[string]any{"model": "small", "temperature": 0.2})
	b := NewConfig(map[string]any{"temperature": 0.2, "model": "small"})
	c := NewConfig(map[string]any{"model": "large", "temperature": 0.2})

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.Len(t, a.ID(), 16)
}

func TestNewConfig_ExplicitIDOverride(t *testing.T) {
	cfg := NewConfig(map[string]any{IDKey: "baseline", "x": 1})
	assert.Equal(t, "baseline", cfg.ID())
}

func TestConfig_ValuesAreIsolated(t *testing.T) {
	src := map[string]any{"nested": map[string]any{"x": 1}}
	cfg := NewConfig(src)

	src["nested"].(map[string]any)["x"] = 99
	v, ok := cfg.Value("nested.x")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	out := cfg.Values()
	out["nested"].(map[string]any)["x"] = 42
	v, _ = cfg.Value("nested.x")
	assert.Equal(t, 1, v)
}

func TestConfig_Bind(t *testing.T) {
	type llmParams struct {
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
	}

	cfg := NewConfig(map[string]any{"model": "small", "temperature": 0.7})

	var p llmParams
	require.NoError(t, cfg.Bind(&p))
	assert.Equal(t, "small", p.Model)
	assert.Equal(t, 0.7, p.Temperature)
}

func TestConfig_BindPath(t *testing.T) {
	type llmParams struct {
		Model string `yaml:"model"`
	}

	cfg := NewConfig(map[string]any{
		"llm":     map[string]any{"model": "large"},
		"retries": 3,
	})

	var p llmParams
	require.NoError(t, cfg.BindPath("llm", &p))
	assert.Equal(t, "large", p.Model)

	err := cfg.BindPath("nope", &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestConfig_ViewKeepsParentID(t *testing.T) {
	cfg := NewConfig(map[string]any{
		"llm": map[string]any{"model": "large"},
	})

	view, err := cfg.View("llm")
	require.NoError(t, err)
	assert.Equal(t, cfg.ID(), view.ID())

	v, ok := view.Value("model")
	require.True(t, ok)
	assert.Equal(t, "large", v)
}

func TestConfigSet_Lookup(t *testing.T) {
	set := ConfigSet{
		NewConfig(map[string]any{"x": 1}),
		NewConfig(map[string]any{"x": 2}),
	}

	assert.Len(t, set.IDs(), 2)
	assert.Same(t, set[1], set.Find(set[1].ID()))
	assert.Nil(t, set.Find("missing"))
}
