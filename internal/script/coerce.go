package script

import (
	"fmt"
	"slices"
	"time"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

// Coerce converts a value produced by Lua to the Go type the codec uses
// for shape. Lua has a single number type and a single table type, so
// numbers are narrowed or widened and tables become lists, sets or maps
func Coerce(shape *api.Shape, v any) (any, error) {
	if v == nil || shape.IsGeneric() {
		return v, nil
	}
	switch shape.Kind {
	case api.KindInt:
		if n, ok := integral(v); ok {
			return n, nil
		}
	case api.KindLong:
		if n, ok := integral(v); ok {
			return int64(n), nil
		}
	case api.KindFloat, api.KindNumber:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case api.KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case api.KindTime:
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t, nil
			}
		}
	case api.KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case api.KindEnum:
		if s, ok := v.(string); ok && slices.Contains(shape.Values, s) {
			return s, nil
		}
	case api.KindList:
		return coerceList(shape, v)
	case api.KindSet:
		elems, err := coerceList(shape, v)
		if err != nil {
			return nil, err
		}
		res := make(map[any]struct{}, len(elems))
		for _, e := range elems {
			res[e] = struct{}{}
		}
		return res, nil
	case api.KindMap:
		return coerceMap(shape, v)
	}
	return nil, fmt.Errorf("%w: %v as %s", ErrResultShape, v, shape)
}

func integral(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func coerceList(shape *api.Shape, v any) ([]any, error) {
	var elems []any
	switch t := v.(type) {
	case []any:
		elems = t
	case map[any]any:
		if len(t) != 0 {
			return nil, fmt.Errorf("%w: table as %s", ErrResultShape, shape)
		}
	default:
		return nil, fmt.Errorf("%w: %v as %s", ErrResultShape, v, shape)
	}
	res := make([]any, len(elems))
	for i, e := range elems {
		c, err := Coerce(shape.Elem, e)
		if err != nil {
			return nil, err
		}
		res[i] = c
	}
	return res, nil
}

func coerceMap(shape *api.Shape, v any) (map[any]any, error) {
	res := map[any]any{}
	switch t := v.(type) {
	case map[any]any:
		for k, e := range t {
			c, err := Coerce(shape.Elem, e)
			if err != nil {
				return nil, err
			}
			res[k] = c
		}
	case []any:
		if len(t) != 0 {
			return nil, fmt.Errorf("%w: array as %s", ErrResultShape, shape)
		}
	default:
		return nil, fmt.Errorf("%w: %v as %s", ErrResultShape, v, shape)
	}
	return res, nil
}
