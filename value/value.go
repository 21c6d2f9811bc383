// Package value provides the data model templates are rendered against.
//
// A Value is a small tagged union: a string, an integer, a float, a boolean,
// an ordered map or a list. The zero Value is Missing, the result of looking
// up a name that does not exist. Missing is never stored by the builders in
// this package; it only appears as the outcome of a failed lookup.
//
// # Creating Values
//
//	name := value.FromString("World")
//	count := value.FromInt(42)
//	ctx := value.NewMapBuilder().
//	    Insert("name", name).
//	    Insert("count", count).
//	    Insert("tags", []string{"a", "b"}).
//	    Build()
//
// Native Go values can be converted with FromAny, and YAML or JSON documents
// with FromYAML.
//
// # Rendering Rules
//
// String renders the display form used by variable tags: integers without a
// decimal point, floats with the shortest representation that round-trips
// (1.210 renders as "1.21"), booleans as "true"/"false", and maps, lists and
// Missing as the empty string.
//
// IsTrue implements section truthiness: Missing, false and the empty list are
// falsey, everything else is truthy.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind describes the type of a Value.
type Kind int

const (
	// KindMissing is the result of a failed lookup.
	KindMissing Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is an immutable node of the data tree.
//
// Values are compared and copied by value; maps and lists share their
// underlying storage, which is never mutated once built.
type Value struct {
	data any
}

// Missing returns the value produced by a failed lookup.
func Missing() Value {
	return Value{}
}

// FromString creates a string Value.
func FromString(v string) Value {
	return Value{data: v}
}

// FromInt creates an integer Value.
func FromInt(v int64) Value {
	return Value{data: v}
}

// FromFloat creates a float Value. Floats stay distinct from integers so
// that 2.5 and 3 render as "2.5" and "3".
func FromFloat(v float64) Value {
	return Value{data: v}
}

// FromBool creates a boolean Value.
func FromBool(v bool) Value {
	return Value{data: v}
}

// FromMap wraps an ordered map.
func FromMap(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{data: m}
}

// FromList creates a list Value.
func FromList(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{data: items}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case string:
		return KindString
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case *Map:
		return KindMap
	case []Value:
		return KindList
	default:
		return KindMissing
	}
}

// IsMissing reports whether v is the result of a failed lookup.
func (v Value) IsMissing() bool {
	return v.data == nil
}

// IsTrue reports whether a section over v renders its body.
func (v Value) IsTrue() bool {
	switch d := v.data.(type) {
	case nil:
		return false
	case bool:
		return d
	case []Value:
		return len(d) > 0
	default:
		return true
	}
}

// String returns the display form of the value.
func (v Value) String() string {
	switch d := v.data.(type) {
	case string:
		return d
	case int64:
		return strconv.FormatInt(d, 10)
	case float64:
		return formatFloat(d)
	case bool:
		return strconv.FormatBool(d)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Repr returns a debug representation of the value.
func (v Value) Repr() string {
	switch d := v.data.(type) {
	case nil:
		return "missing"
	case string:
		return strconv.Quote(d)
	case *Map:
		parts := make([]string, 0, d.Len())
		for _, k := range d.Keys() {
			item, _ := d.Get(k)
			parts = append(parts, fmt.Sprintf("%q: %s", k, item.Repr()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []Value:
		parts := make([]string, len(d))
		for i, item := range d {
			parts[i] = item.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.String()
	}
}

// AsString returns the string if v is a string.
func (v Value) AsString() (string, bool) {
	s, ok := v.data.(string)
	return s, ok
}

// AsInt returns the integer if v is an integer.
func (v Value) AsInt() (int64, bool) {
	i, ok := v.data.(int64)
	return i, ok
}

// AsFloat returns the float if v is a float.
func (v Value) AsFloat() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok
}

// AsBool returns the boolean if v is a boolean.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok
}

// AsMap returns the map if v is a map.
func (v Value) AsMap() (*Map, bool) {
	m, ok := v.data.(*Map)
	return m, ok
}

// AsList returns the items if v is a list.
func (v Value) AsList() ([]Value, bool) {
	l, ok := v.data.([]Value)
	return l, ok
}

// Get looks up key when v is a map. Any other kind yields Missing.
func (v Value) Get(key string) (Value, bool) {
	m, ok := v.data.(*Map)
	if !ok {
		return Missing(), false
	}
	return m.Get(key)
}
