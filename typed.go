package experiment

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
)

// Typed adapts a strongly typed experiment function into the erased Func
// form. The configuration is bound into C immediately before the body
// runs; C may also be *Config to receive the raw configuration.
func Typed[I any, C any, O any](fn func(ctx context.Context, in I, cfg C) (O, error)) Func {
	return func(ctx context.Context, input any, cfg *Config) (any, error) {
		var in I
		if input != nil {
			v, ok := input.(I)
			if !ok {
				return nil, errors.New(fmt.Sprintf("input %T does not match expected %T", input, in), errors.CategoryBadInput).
					WithTextCode(ErrCodeInvalidInput)
			}
			in = v
		}

		var c C
		if direct, ok := any(cfg).(C); ok {
			c = direct
		} else if err := cfg.Bind(&c); err != nil {
			return nil, err
		}

		return fn(ctx, in, c)
	}
}
