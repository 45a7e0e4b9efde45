package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// FieldType identifies the storage type of an attribute field.
type FieldType string

// Supported field types.
const (
	// FieldString holds text values.
	FieldString FieldType = "string"

	// FieldInteger holds whole numbers.
	FieldInteger FieldType = "integer"

	// FieldReal holds floating point numbers.
	FieldReal FieldType = "real"
)

// IsValid returns true if the field type is recognised.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldString, FieldInteger, FieldReal:
		return true
	default:
		return false
	}
}

// Coerce converts v to the Go type stored by t: string, int64 or
// float64. Nil stays nil. Values that cannot be converted return false.
func (t FieldType) Coerce(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	switch t {
	case FieldString:
		switch s := v.(type) {
		case string:
			return s, true
		case fmt.Stringer:
			return s.String(), true
		default:
			return fmt.Sprint(v), true
		}
	case FieldInteger:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		if i, isInt := v.(int64); isInt {
			return i, true
		}
		return int64(math.Round(f)), true
	case FieldReal:
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Field describes one attribute column of a feature layer.
type Field struct {
	// Name is the column name as stored.
	Name string

	// Type is the storage type.
	Type FieldType

	// Width and Precision are hints for fixed-width formats (dBase).
	// Zero means format default.
	Width     int
	Precision int
}

// RealField returns a real-valued field with the given name.
func RealField(name string) Field {
	return Field{Name: name, Type: FieldReal, Width: 24, Precision: 15}
}

// HasField reports whether fields contains name, ignoring case.
func HasField(fields []Field, name string) bool {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// ExtendFields returns a copy of template followed by one real field per
// extra name. A name already present, in template or earlier in extra,
// fails with *FieldCollisionError.
func ExtendFields(template []Field, extra ...string) ([]Field, error) {
	out := make([]Field, len(template), len(template)+len(extra))
	copy(out, template)
	for _, name := range extra {
		if HasField(out, name) {
			return nil, &FieldCollisionError{Field: name}
		}
		out = append(out, RealField(name))
	}
	return out, nil
}

// Attributes is an ordered attribute mapping.
// Keys keep insertion order; lookup ignores case, so a feature read from
// a format with upper-case column names still matches the template schema.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes returns an empty attribute mapping.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position and spelling.
func (a *Attributes) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	lk := strings.ToLower(key)
	if _, ok := a.values[lk]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[lk] = value
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[strings.ToLower(key)]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of keys.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Clone returns an independent copy.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, a.values[strings.ToLower(k)])
	}
	return c
}

// Map returns the attributes as a plain map, for serialisation.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any, a.Len())
	if a == nil {
		return out
	}
	for _, k := range a.keys {
		out[k] = a.values[strings.ToLower(k)]
	}
	return out
}

// Feature is one record of a vector layer.
type Feature struct {
	// ID identifies the feature within its source.
	ID int64

	// Geometry is the feature geometry in source coordinates.
	Geometry orb.Geometry

	// Attributes holds the feature's field values.
	Attributes *Attributes
}
