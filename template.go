package experiment

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

// Template mixes fixed values with multi-valued fields. Expand produces one
// Config per combination of the multi-valued fields.
type Template map[string]any

// Multi marks a template field as an ordered sequence of candidate values.
type Multi interface {
	candidates() []any
}

type valueList []any

func (v valueList) candidates() []any { return v }

// Values declares a multi-valued field from an explicit candidate list.
func Values(vals ...any) Multi { return valueList(vals) }

// Range declares a multi-valued field sweeping start..stop inclusive with
// the given step. A descending sweep uses a negative step. A zero step
// produces an empty candidate set, which Expand reports as an error.
func Range(start, stop, step float64) Multi {
	var vals []any
	switch {
	case step > 0:
		for v := start; v <= stop; v += step {
			vals = append(vals, v)
		}
	case step < 0:
		for v := start; v >= stop; v += step {
			vals = append(vals, v)
		}
	}
	return valueList(vals)
}

// seqSource pulls from a possibly single-use iterator exactly once and
// caches the result, so expansion never exhausts it twice.
type seqSource struct {
	once sync.Once
	src  iter.Seq[any]
	vals []any
}

// Seq declares a multi-valued field backed by an iterator. The iterator is
// consumed at most once, during the first expansion.
func Seq(src iter.Seq[any]) Multi { return &seqSource{src: src} }

func (s *seqSource) candidates() []any {
	s.once.Do(func() {
		for v := range s.src {
			s.vals = append(s.vals, v)
		}
		s.src = nil
	})
	return s.vals
}

type sweepField struct {
	path string
	vals []any
}

// Expand materializes the cartesian product of all multi-valued fields,
// each combination merged with the fixed fields. Go maps carry no
// declaration order, so multi-valued fields are ordered by their sorted
// flattened path and the last path varies fastest (odometer ordering).
// A template without multi-valued fields expands to exactly one Config.
func (t Template) Expand() (ConfigSet, error) {
	fixed := map[string]any{}
	var sweeps []sweepField

	flattenTemplate("", map[string]any(t), fixed, &sweeps)

	sort.Slice(sweeps, func(i, j int) bool { return sweeps[i].path < sweeps[j].path })

	for _, s := range sweeps {
		if len(s.vals) == 0 {
			return nil, errors.New(fmt.Sprintf("multi-valued field %q has no candidate values", s.path), errors.CategoryBadInput).
				WithTextCode(ErrCodeEmptyValues).
				WithMetadata(map[string]any{"field": s.path})
		}
	}

	total := 1
	for _, s := range sweeps {
		total *= len(s.vals)
	}

	configs := make(ConfigSet, 0, total)
	for i := 0; i < total; i++ {
		leaves := map[string]any{}
		for k, v := range fixed {
			leaves[k] = v
		}
		rem := i
		for j := len(sweeps) - 1; j >= 0; j-- {
			n := len(sweeps[j].vals)
			leaves[sweeps[j].path] = sweeps[j].vals[rem%n]
			rem /= n
		}
		configs = append(configs, NewConfig(unflatten(leaves)))
	}
	return configs, nil
}

// ExpandAll expands every template in order and concatenates the results.
func ExpandAll(tpls ...Template) (ConfigSet, error) {
	var all ConfigSet
	for _, t := range tpls {
		cfgs, err := t.Expand()
		if err != nil {
			return nil, err
		}
		all = append(all, cfgs...)
	}
	return all, nil
}

func flattenTemplate(prefix string, m map[string]any, fixed map[string]any, sweeps *[]sweepField) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch t := v.(type) {
		case Multi:
			*sweeps = append(*sweeps, sweepField{path: path, vals: t.candidates()})
		case Template:
			flattenTemplate(path, map[string]any(t), fixed, sweeps)
		case map[string]any:
			flattenTemplate(path, t, fixed, sweeps)
		default:
			fixed[path] = v
		}
	}
}

func unflatten(leaves map[string]any) map[string]any {
	out := map[string]any{}
	for path, v := range leaves {
		parts := strings.Split(path, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return out
}
