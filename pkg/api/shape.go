package api

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type (
	// Kind is the tag of a Shape: a scalar class or a collection
	Kind string

	// Shape describes the data shape of a property value. Scalars carry a
	// Kind, collections carry element (and, for maps, key) shapes. A nil
	// *Shape is the unset shape, which any concrete shape replaces
	Shape struct {
		Kind       Kind
		Elem       *Shape
		Key        *Shape
		Values     []string
		Translator Translator

		// SelfRendering marks values that render their own representation,
		// which implies they are saved back when changed
		SelfRendering bool
	}

	// Translator converts one element of a shape to and from its string
	// form, replacing the codec's default representation for that element
	Translator interface {
		Format(value any) (string, error)
		Parse(raw string) (any, error)
	}
)

const (
	KindAny    Kind = "any"
	KindString Kind = "string"
	KindBool   Kind = "boolean"
	KindInt    Kind = "integer"
	KindLong   Kind = "long"
	KindFloat  Kind = "float"
	KindNumber Kind = "number"
	KindEnum   Kind = "enum"
	KindTime   Kind = "time"
	KindList   Kind = "list"
	KindSet    Kind = "set"
	KindMap    Kind = "map"
)

var numericRank = map[Kind]int{
	KindInt:   1,
	KindLong:  2,
	KindFloat: 3,
}

var primitiveKinds = map[Kind]bool{
	KindString: true,
	KindBool:   true,
	KindInt:    true,
	KindLong:   true,
	KindFloat:  true,
	KindNumber: true,
	KindTime:   true,
}

// Scalar returns a scalar shape of the given kind
func Scalar(k Kind) *Shape {
	return &Shape{Kind: k}
}

// Enum returns an enumeration shape restricted to values
func Enum(values ...string) *Shape {
	return &Shape{Kind: KindEnum, Values: slices.Clone(values)}
}

// ListOf returns a list shape. A nil elem leaves the element unset
func ListOf(elem *Shape) *Shape {
	return &Shape{Kind: KindList, Elem: elem}
}

// SetOf returns a set shape. A nil elem leaves the element unset
func SetOf(elem *Shape) *Shape {
	return &Shape{Kind: KindSet, Elem: elem}
}

// MapOf returns a map shape with the given key and value shapes
func MapOf(key, value *Shape) *Shape {
	return &Shape{Kind: KindMap, Key: key, Elem: value}
}

// WithTranslator returns a copy of the shape that uses t for its values
func (s *Shape) WithTranslator(t Translator) *Shape {
	res := *s
	res.Translator = t
	return &res
}

// IsGeneric reports whether the shape is unset or the any kind
func (s *Shape) IsGeneric() bool {
	return s == nil || s.Kind == KindAny || s.Kind == ""
}

// IsCollection reports whether the shape is a list, set or map
func (s *Shape) IsCollection() bool {
	if s == nil {
		return false
	}
	return s.Kind == KindList || s.Kind == KindSet || s.Kind == KindMap
}

// IsPrimitive reports whether the shape is a primitive scalar
func (s *Shape) IsPrimitive() bool {
	return s != nil && primitiveKinds[s.Kind]
}

// IsNumeric reports whether the shape holds numbers
func (s *Shape) IsNumeric() bool {
	if s == nil {
		return false
	}
	_, ok := numericRank[s.Kind]
	return ok || s.Kind == KindNumber
}

// Validate checks that the shape is well formed
func (s *Shape) Validate() error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindAny, KindString, KindBool, KindInt, KindLong, KindFloat,
		KindNumber, KindTime:
		return nil
	case KindEnum:
		if len(s.Values) == 0 {
			return fmt.Errorf("%w: enum without values", ErrInvalidShape)
		}
		return nil
	case KindList:
		return s.Elem.Validate()
	case KindSet:
		if s.Elem.IsCollection() {
			return fmt.Errorf("%w: set elements must be scalar",
				ErrInvalidShape)
		}
		return s.Elem.Validate()
	case KindMap:
		if s.Key.IsCollection() {
			return fmt.Errorf("%w: map keys must be scalar", ErrInvalidShape)
		}
		if err := s.Key.Validate(); err != nil {
			return err
		}
		return s.Elem.Validate()
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s.Kind)
	}
}

// Equal reports structural equality. Translators must be the same
// reference
func (s *Shape) Equal(other *Shape) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return s.Kind == other.Kind &&
		s.SelfRendering == other.SelfRendering &&
		slices.Equal(s.Values, other.Values) &&
		SameRef(s.Translator, other.Translator) &&
		s.Elem.Equal(other.Elem) &&
		s.Key.Equal(other.Key)
}

// Replaces reports whether s carries at least as much information as other
// and is compatible with it, so that s may stand in for other in a merged
// schema. The relation is computed bottom-up through key and element shapes
func (s *Shape) Replaces(other *Shape) bool {
	if other.IsGeneric() {
		return true
	}
	if s.IsGeneric() {
		return false
	}
	if s.IsCollection() || other.IsCollection() {
		return s.Kind == other.Kind &&
			s.Elem.Replaces(other.Elem) &&
			s.Key.Replaces(other.Key)
	}
	return scalarReplaces(s, other)
}

func scalarReplaces(s, other *Shape) bool {
	switch {
	case s.Kind == other.Kind && s.Kind == KindEnum:
		return len(other.Values) == 0 || slices.Equal(s.Values, other.Values)
	case s.Kind == other.Kind:
		return true
	case other.Kind == KindNumber:
		return s.IsNumeric()
	}
	sr, sok := numericRank[s.Kind]
	or, ook := numericRank[other.Kind]
	return sok && ook && sr > or
}

// MergeShapes combines two shapes declared for the same property. The more
// concrete shape wins at every level; between concrete numeric kinds the
// wider one wins. The second result is false when the shapes conflict
func MergeShapes(a, b *Shape) (*Shape, bool) {
	switch {
	case a.Equal(b):
		return a, true
	case a.IsGeneric() && b.IsGeneric():
		if a == nil {
			return b, true
		}
		return a, true
	case b.IsGeneric():
		return a, true
	case a.IsGeneric():
		return b, true
	}

	if a.IsCollection() || b.IsCollection() {
		if a.Kind != b.Kind {
			return nil, false
		}
		elem, ok := MergeShapes(a.Elem, b.Elem)
		if !ok {
			return nil, false
		}
		key, ok := MergeShapes(a.Key, b.Key)
		if !ok {
			return nil, false
		}
		res := *a
		res.Elem = elem
		res.Key = key
		res.SelfRendering = a.SelfRendering || b.SelfRendering
		if res.Translator == nil {
			res.Translator = b.Translator
		}
		return &res, true
	}

	var res Shape
	switch {
	case b.Replaces(a):
		res = *b
		if a.Translator != nil {
			res.Translator = a.Translator
		}
	case a.Replaces(b):
		res = *a
		if res.Translator == nil {
			res.Translator = b.Translator
		}
	default:
		return nil, false
	}
	res.SelfRendering = a.SelfRendering || b.SelfRendering
	return &res, true
}

// ZeroValue returns the value an auto-created property starts with
func (s *Shape) ZeroValue() any {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindString:
		return ""
	case KindBool:
		return false
	case KindInt:
		return 0
	case KindLong:
		return int64(0)
	case KindFloat, KindNumber:
		return float64(0)
	case KindTime:
		return time.Time{}
	case KindList:
		return []any{}
	case KindSet:
		return map[any]struct{}{}
	case KindMap:
		return map[any]any{}
	default:
		return nil
	}
}

// String renders the shape in the notation accepted by ParseShape
func (s *Shape) String() string {
	if s == nil {
		return string(KindAny)
	}
	switch s.Kind {
	case KindList, KindSet:
		return fmt.Sprintf("%s<%s>", s.Kind, s.Elem)
	case KindMap:
		return fmt.Sprintf("map<%s,%s>", s.Key, s.Elem)
	case KindEnum:
		return fmt.Sprintf("enum<%s>", strings.Join(s.Values, "|"))
	default:
		return string(s.Kind)
	}
}

// ParseShape parses the notation produced by Shape.String, for example
// "map<string,list<integer>>" or "enum<red|green>"
func ParseShape(src string) (*Shape, error) {
	p := &shapeParser{src: strings.ReplaceAll(src, " ", "")}
	s, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input in %q", ErrInvalidShape, src)
	}
	return s, s.Validate()
}

type shapeParser struct {
	src string
	pos int
}

func (p *shapeParser) parse() (*Shape, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("<>,", p.src[p.pos]) < 0 {
		p.pos++
	}
	kind := Kind(p.src[start:p.pos])
	if kind == "" {
		return nil, fmt.Errorf("%w: missing kind at %d", ErrInvalidShape, start)
	}

	switch kind {
	case KindList, KindSet:
		args, err := p.args(1)
		if err != nil {
			return nil, err
		}
		return &Shape{Kind: kind, Elem: args[0]}, nil
	case KindMap:
		args, err := p.args(2)
		if err != nil {
			return nil, err
		}
		return MapOf(args[0], args[1]), nil
	case KindEnum:
		return p.enum()
	default:
		return Scalar(kind), nil
	}
}

func (p *shapeParser) args(n int) ([]*Shape, error) {
	if !p.consume('<') {
		return nil, fmt.Errorf("%w: expected '<'", ErrInvalidShape)
	}
	res := make([]*Shape, 0, n)
	for i := range n {
		if i > 0 && !p.consume(',') {
			return nil, fmt.Errorf("%w: expected ','", ErrInvalidShape)
		}
		s, err := p.parse()
		if err != nil {
			return nil, err
		}
		if s.Kind == KindAny {
			s = nil
		}
		res = append(res, s)
	}
	if !p.consume('>') {
		return nil, fmt.Errorf("%w: expected '>'", ErrInvalidShape)
	}
	return res, nil
}

func (p *shapeParser) enum() (*Shape, error) {
	if !p.consume('<') {
		return nil, fmt.Errorf("%w: expected '<'", ErrInvalidShape)
	}
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated enum", ErrInvalidShape)
	}
	values := strings.Split(p.src[p.pos:p.pos+end], "|")
	p.pos += end + 1
	return Enum(values...), nil
}

func (p *shapeParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}
