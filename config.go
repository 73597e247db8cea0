package experiment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// IDKey is the reserved template field that, when present, overrides the
// derived configuration id.
const IDKey = "config_id"

// Config is one concrete, immutable parameter set with a stable identifier.
// Two configs with identical normalized content share the same id.
type Config struct {
	id     string
	values map[string]any
}

// NewConfig copies values and derives the config id from the normalized
// content, honoring an explicit IDKey override.
func NewConfig(values map[string]any) *Config {
	vals := copyValue(values).(map[string]any)
	return &Config{
		id:     configID(vals),
		values: vals,
	}
}

func (c *Config) ID() string { return c.id }

// Values returns a deep copy so the stored content stays immutable.
func (c *Config) Values() map[string]any {
	return copyValue(c.values).(map[string]any)
}

// Value resolves a dot-joined path against the nested content.
func (c *Config) Value(path string) (any, bool) {
	var cur any = c.values
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Bind decodes the whole configuration into out via a YAML round trip, so
// target functions can take typed structs instead of raw maps.
func (c *Config) Bind(out any) error {
	return c.BindPath("", out)
}

// BindPath decodes the subtree at the dot-joined path into out. An empty
// path binds the whole configuration.
func (c *Config) BindPath(path string, out any) error {
	var src any = c.values
	if path != "" {
		v, ok := c.Value(path)
		if !ok {
			return errors.New(fmt.Sprintf("bind path %q not present in configuration", path), errors.CategoryValidation).
				WithTextCode(ErrCodeBadBindPath).
				WithMetadata(map[string]any{"config_id": c.id, "path": path})
		}
		src = v
	}

	raw, err := yaml.Marshal(src)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "configuration could not be encoded for binding").
			WithTextCode(ErrCodeBindFailed).
			WithMetadata(map[string]any{"config_id": c.id})
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "configuration does not match target shape").
			WithTextCode(ErrCodeBindFailed).
			WithMetadata(map[string]any{"config_id": c.id, "path": path})
	}
	return nil
}

// View returns a Config scoped to the subtree at path, keeping the parent
// id so telemetry still points at the original configuration.
func (c *Config) View(path string) (*Config, error) {
	if path == "" {
		return c, nil
	}
	v, ok := c.Value(path)
	if !ok {
		return nil, errors.New(fmt.Sprintf("bind path %q not present in configuration", path), errors.CategoryValidation).
			WithTextCode(ErrCodeBadBindPath).
			WithMetadata(map[string]any{"config_id": c.id, "path": path})
	}
	m, ok := v.(map[string]any)
	if !ok {
		m = map[string]any{lastSegment(path): v}
	}
	return &Config{id: c.id, values: copyValue(m).(map[string]any)}, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ConfigSet is the ordered configuration list of one registered experiment.
// Index 0 is the default primary candidate for order-sensitive strategies.
type ConfigSet []*Config

// IDs returns the configuration ids in set order.
func (s ConfigSet) IDs() []string {
	ids := make([]string, len(s))
	for i, c := range s {
		ids[i] = c.id
	}
	return ids
}

// Find returns the first config with the given id, or nil.
func (s ConfigSet) Find(id string) *Config {
	for _, c := range s {
		if c.id == id {
			return c
		}
	}
	return nil
}

func configID(values map[string]any) string {
	if v, ok := values[IDKey]; ok {
		return fmt.Sprintf("%v", v)
	}
	// json.Marshal sorts map keys, which gives us the canonical form
	raw, err := json.Marshal(values)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", values))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:16]
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
