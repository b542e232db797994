package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/argyll/wizard/pkg/api"
)

// JSON is the default api.Codec
type JSON struct{}

var (
	ErrUnexpectedValue = errors.New("value does not match shape")
	ErrUnknownEnum     = errors.New("value is not an enum member")
)

var _ api.Codec = JSON{}

// Serialize renders value as JSON according to d's shape
func (JSON) Serialize(d *api.Descriptor, value any) (string, error) {
	v, err := encode(d.Shape, value)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnexpectedValue, d.Name, err)
	}
	res, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(res), nil
}

// Deserialize decodes raw according to d's shape
func (JSON) Deserialize(d *api.Descriptor, raw string) (any, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: %q: invalid JSON",
			api.ErrNotDeserializable, d.Name)
	}
	res, err := decode(d.Shape, gjson.Parse(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w",
			api.ErrNotDeserializable, d.Name, err)
	}
	return res, nil
}

// IsDeserializable reports whether raw decodes under d's shape
func (c JSON) IsDeserializable(d *api.Descriptor, raw string) bool {
	_, err := c.Deserialize(d, raw)
	return err == nil
}

func encode(s *api.Shape, value any) (any, error) {
	if value == nil || s.IsGeneric() {
		return value, nil
	}
	if s.Translator != nil && !s.IsCollection() {
		return s.Translator.Format(value)
	}
	switch s.Kind {
	case api.KindTime:
		t, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time, got %T", value)
		}
		return t.Format(time.RFC3339Nano), nil
	case api.KindList:
		return encodeList(s.Elem, value)
	case api.KindSet:
		return encodeSet(s.Elem, value)
	case api.KindMap:
		return encodeMap(s, value)
	default:
		return encodeScalar(s, value)
	}
}

func encodeScalar(s *api.Shape, value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch s.Kind {
	case api.KindString:
		if rv.Kind() != reflect.String {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
	case api.KindEnum:
		if rv.Kind() != reflect.String {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		if !slices.Contains(s.Values, rv.String()) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnum, rv.String())
		}
	case api.KindBool:
		if rv.Kind() != reflect.Bool {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
	case api.KindInt, api.KindLong:
		if !isInteger(rv) {
			return nil, fmt.Errorf("expected integer, got %T", value)
		}
	case api.KindFloat, api.KindNumber:
		if !isInteger(rv) && !rv.CanFloat() {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	}
	return value, nil
}

func isInteger(rv reflect.Value) bool {
	switch {
	case rv.CanInt(), rv.CanUint():
		return true
	case rv.CanFloat():
		f := rv.Float()
		return f == float64(int64(f))
	default:
		return false
	}
}

func encodeList(elem *api.Shape, value any) ([]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected list, got %T", value)
	}
	res := make([]any, rv.Len())
	for i := range rv.Len() {
		e, err := encode(elem, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		res[i] = e
	}
	return res, nil
}

func encodeSet(elem *api.Shape, value any) ([]json.RawMessage, error) {
	var elems []any
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			elems = append(elems, k.Interface())
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			elems = append(elems, rv.Index(i).Interface())
		}
	default:
		return nil, fmt.Errorf("expected set, got %T", value)
	}

	res := make([]json.RawMessage, 0, len(elems))
	for _, e := range elems {
		v, err := encode(elem, e)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	slices.SortFunc(res, func(a, b json.RawMessage) int {
		return slices.Compare(a, b)
	})
	return slices.CompactFunc(res, func(a, b json.RawMessage) bool {
		return slices.Equal(a, b)
	}), nil
}

func encodeMap(s *api.Shape, value any) (map[string]any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	res := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := keyText(s.Key, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		v, err := encode(s.Elem, iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		res[k] = v
	}
	return res, nil
}

func keyText(s *api.Shape, key any) (string, error) {
	if s != nil && s.Translator != nil {
		return s.Translator.Format(key)
	}
	switch k := key.(type) {
	case string:
		return k, nil
	case time.Time:
		return k.Format(time.RFC3339Nano), nil
	default:
		return fmt.Sprint(k), nil
	}
}

func decode(s *api.Shape, r gjson.Result) (any, error) {
	if r.Type == gjson.Null {
		return nil, nil
	}
	if s.IsGeneric() {
		return r.Value(), nil
	}
	if s.Translator != nil && !s.IsCollection() {
		return s.Translator.Parse(r.String())
	}

	switch s.Kind {
	case api.KindList:
		return decodeList(s.Elem, r)
	case api.KindSet:
		return decodeSet(s.Elem, r)
	case api.KindMap:
		return decodeMap(s, r)
	default:
		return decodeScalar(s, r)
	}
}

func decodeScalar(s *api.Shape, r gjson.Result) (any, error) {
	switch s.Kind {
	case api.KindString:
		if r.Type != gjson.String {
			return nil, errors.New("must be a JSON string")
		}
		return r.String(), nil
	case api.KindEnum:
		if r.Type != gjson.String {
			return nil, errors.New("must be a JSON string")
		}
		if !slices.Contains(s.Values, r.String()) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnum, r.String())
		}
		return r.String(), nil
	case api.KindBool:
		if r.Type != gjson.True && r.Type != gjson.False {
			return nil, errors.New("must be \"true\" or \"false\"")
		}
		return r.Bool(), nil
	case api.KindInt:
		i, err := integer(r)
		return int(i), err
	case api.KindLong:
		return integer(r)
	case api.KindFloat, api.KindNumber:
		if r.Type != gjson.Number {
			return nil, errors.New("must be a valid number")
		}
		return r.Float(), nil
	case api.KindTime:
		if r.Type != gjson.String {
			return nil, errors.New("must be a JSON string")
		}
		return time.Parse(time.RFC3339Nano, r.String())
	default:
		return r.Value(), nil
	}
}

func integer(r gjson.Result) (int64, error) {
	if r.Type != gjson.Number {
		return 0, errors.New("must be a valid number")
	}
	return strconv.ParseInt(r.Raw, 10, 64)
}

func decodeList(elem *api.Shape, r gjson.Result) ([]any, error) {
	if !r.IsArray() {
		return nil, errors.New("must be valid JSON array")
	}
	res := []any{}
	var err error
	r.ForEach(func(_, v gjson.Result) bool {
		var e any
		if e, err = decode(elem, v); err != nil {
			return false
		}
		res = append(res, e)
		return true
	})
	return res, err
}

func decodeSet(elem *api.Shape, r gjson.Result) (map[any]struct{}, error) {
	items, err := decodeList(elem, r)
	if err != nil {
		return nil, err
	}
	res := make(map[any]struct{}, len(items))
	for _, e := range items {
		if e != nil && !reflect.TypeOf(e).Comparable() {
			return nil, fmt.Errorf("set element %T is not comparable", e)
		}
		res[e] = struct{}{}
	}
	return res, nil
}

func decodeMap(s *api.Shape, r gjson.Result) (map[any]any, error) {
	if !r.IsObject() {
		return nil, errors.New("must be valid JSON object")
	}
	res := map[any]any{}
	var err error
	r.ForEach(func(k, v gjson.Result) bool {
		var key, val any
		if key, err = parseKey(s.Key, k.String()); err != nil {
			return false
		}
		if val, err = decode(s.Elem, v); err != nil {
			return false
		}
		res[key] = val
		return true
	})
	return res, err
}

func parseKey(s *api.Shape, raw string) (any, error) {
	if s.IsGeneric() {
		return raw, nil
	}
	if s.Translator != nil {
		return s.Translator.Parse(raw)
	}
	switch s.Kind {
	case api.KindBool:
		return strconv.ParseBool(raw)
	case api.KindInt:
		return strconv.Atoi(raw)
	case api.KindLong:
		return strconv.ParseInt(raw, 10, 64)
	case api.KindFloat, api.KindNumber:
		return strconv.ParseFloat(raw, 64)
	case api.KindTime:
		return time.Parse(time.RFC3339Nano, raw)
	case api.KindEnum:
		if !slices.Contains(s.Values, raw) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnum, raw)
		}
		return raw, nil
	default:
		return raw, nil
	}
}
