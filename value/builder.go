package value

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// MapBuilder builds a map Value one entry at a time.
//
//	data := value.NewMapBuilder().
//	    Insert("content", "X").
//	    Insert("nodes", value.NewListBuilder().
//	        Push(value.NewMapBuilder().Insert("content", "Y"))).
//	    Build()
type MapBuilder struct {
	m *Map
}

// NewMapBuilder creates an empty map builder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{m: NewMap()}
}

// Insert adds key. v may be a Value, a builder or any native Go value
// accepted by FromAny. A nil v leaves the key absent.
func (b *MapBuilder) Insert(key string, v any) *MapBuilder {
	val := FromAny(v)
	if val.IsMissing() {
		return b
	}
	b.m.Set(key, val)
	return b
}

// Build returns the map built so far. The builder can keep being used; later
// inserts do not affect values already returned.
func (b *MapBuilder) Build() Value {
	out := &Map{
		keys:    make([]string, len(b.m.keys)),
		entries: make(map[string]Value, len(b.m.entries)),
	}
	copy(out.keys, b.m.keys)
	for k, v := range b.m.entries {
		out.entries[k] = v
	}
	return FromMap(out)
}

// ListBuilder builds a list Value.
type ListBuilder struct {
	items []Value
}

// NewListBuilder creates an empty list builder.
func NewListBuilder() *ListBuilder {
	return &ListBuilder{}
}

// Push appends v, converted with FromAny.
func (b *ListBuilder) Push(v any) *ListBuilder {
	b.items = append(b.items, FromAny(v))
	return b
}

// Build returns the list built so far.
func (b *ListBuilder) Build() Value {
	out := make([]Value, len(b.items))
	copy(out, b.items)
	return FromList(out)
}

// FromAny converts a native Go value into a Value using reflection.
//
// Conversion rules:
//   - nil, nil pointers and nil interfaces -> Missing
//   - Value, *Map, *MapBuilder, *ListBuilder -> as is / built
//   - bool -> bool, signed and unsigned integers -> integer
//   - float32, float64 -> float (float32 keeps its shortest decimal form)
//   - string and []byte -> string
//   - slices and arrays -> list
//   - maps -> map, keys formatted as strings and sorted, nil entries dropped
//   - structs -> map of exported fields in declaration order, named by the
//     `mustache` tag, then the `json` tag, then the field name; "-" skips
//   - anything else (funcs, channels) -> Missing
func FromAny(v any) Value {
	switch d := v.(type) {
	case nil:
		return Missing()
	case Value:
		return d
	case *Map:
		return FromMap(d)
	case *MapBuilder:
		return d.Build()
	case *ListBuilder:
		return d.Build()
	}
	return fromReflectValue(reflect.ValueOf(v))
}

func fromReflectValue(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Missing()
	}
	if rv.CanInterface() {
		switch d := rv.Interface().(type) {
		case Value:
			return d
		case *Map:
			return FromMap(d)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return FromBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return FromFloat(float64(u))
		}
		return FromInt(int64(u))
	case reflect.Float32:
		f, err := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)
		if err != nil {
			f = rv.Float()
		}
		return FromFloat(f)
	case reflect.Float64:
		return FromFloat(rv.Float())
	case reflect.String:
		return FromString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return FromList(nil)
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return FromString(string(rv.Bytes()))
		}
		return fromSequence(rv)
	case reflect.Array:
		return fromSequence(rv)
	case reflect.Map:
		return fromMap(rv)
	case reflect.Struct:
		return fromStruct(rv)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Missing()
		}
		return fromReflectValue(rv.Elem())
	default:
		return Missing()
	}
}

func fromSequence(rv reflect.Value) Value {
	items := make([]Value, rv.Len())
	for i := range items {
		items[i] = fromReflectValue(rv.Index(i))
	}
	return FromList(items)
}

func fromMap(rv reflect.Value) Value {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		for k.Kind() == reflect.Interface && !k.IsNil() {
			k = k.Elem()
		}
		var key string
		if k.Kind() == reflect.String {
			key = k.String()
		} else {
			key = fromReflectValue(k).String()
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	m := NewMap()
	for _, e := range entries {
		val := fromReflectValue(e.val)
		if val.IsMissing() {
			continue
		}
		m.Set(e.key, val)
	}
	return FromMap(m)
}

func fromStruct(rv reflect.Value) Value {
	t := rv.Type()
	m := NewMap()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}
		val := fromReflectValue(rv.Field(i))
		if val.IsMissing() {
			continue
		}
		m.Set(name, val)
	}
	return FromMap(m)
}

func fieldName(field reflect.StructField) (string, bool) {
	for _, key := range []string{"mustache", "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return field.Name, false
}
