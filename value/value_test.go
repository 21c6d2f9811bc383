package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected string
	}{
		{KindMissing, "missing"},
		{KindString, "string"},
		{KindInt, "integer"},
		{KindFloat, "float"},
		{KindBool, "bool"},
		{KindMap, "map"},
		{KindList, "list"},
		{Kind(99), "unknown"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.kind.String())
		})
	}
}

func TestDisplayString(t *testing.T) {
	testCases := []struct {
		name     string
		val      Value
		expected string
	}{
		{"string", FromString("hello"), "hello"},
		{"integer", FromInt(85), "85"},
		{"negative integer", FromInt(-3), "-3"},
		{"float trims zeros", FromFloat(1.210), "1.21"},
		{"whole float", FromFloat(2), "2"},
		{"small float", FromFloat(0.5), "0.5"},
		{"true", FromBool(true), "true"},
		{"false", FromBool(false), "false"},
		{"missing", Missing(), ""},
		{"map", NewMapBuilder().Insert("a", 1).Build(), ""},
		{"list", FromList([]Value{FromInt(1)}), ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.val.String())
		})
	}
}

func TestTruthiness(t *testing.T) {
	assert.False(t, Missing().IsTrue())
	assert.False(t, FromBool(false).IsTrue())
	assert.False(t, FromList(nil).IsTrue())

	assert.True(t, FromBool(true).IsTrue())
	assert.True(t, FromString("").IsTrue())
	assert.True(t, FromString("x").IsTrue())
	assert.True(t, FromInt(0).IsTrue())
	assert.True(t, FromFloat(0).IsTrue())
	assert.True(t, FromMap(nil).IsTrue())
	assert.True(t, FromList([]Value{Missing()}).IsTrue())
}

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", FromInt(1))
	m.Set("a", FromInt(2))
	m.Set("c", FromInt(3))
	m.Set("b", FromInt(4))

	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "4", v.String())

	var seen []string
	m.Range(func(k string, _ Value) bool {
		seen = append(seen, k)
		return k != "a"
	})
	assert.Equal(t, []string{"b", "a"}, seen)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestNilMapIsEmpty(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.False(t, m.Has("x"))
}

func TestValueGet(t *testing.T) {
	v := NewMapBuilder().Insert("name", "Joe").Build()

	name, ok := v.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Joe", name.String())

	_, ok = FromString("Joe").Get("name")
	assert.False(t, ok)
}

func TestBuilders(t *testing.T) {
	data := NewMapBuilder().
		Insert("content", "X").
		Insert("nodes", NewListBuilder().
			Push(NewMapBuilder().
				Insert("content", "Y").
				Insert("nodes", NewListBuilder()))).
		Insert("skipped", nil).
		Build()

	m, ok := data.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"content", "nodes"}, m.Keys())

	nodes, _ := m.Get("nodes")
	items, ok := nodes.AsList()
	require.True(t, ok)
	require.Len(t, items, 1)

	inner, ok := items[0].Get("nodes")
	require.True(t, ok)
	assert.Equal(t, KindList, inner.Kind())
	assert.False(t, inner.IsTrue())
}

func TestMapBuilderBuildIsSnapshot(t *testing.T) {
	b := NewMapBuilder().Insert("a", 1)
	first := b.Build()
	b.Insert("b", 2)

	m, _ := first.AsMap()
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestFromAny(t *testing.T) {
	type person struct {
		Name    string `json:"name"`
		Age     int    `mustache:"age" json:"years"`
		Secret  string `json:"-"`
		Nick    *string
		private int
	}

	t.Run("scalars", func(t *testing.T) {
		assert.Equal(t, KindInt, FromAny(85).Kind())
		assert.Equal(t, KindInt, FromAny(uint8(3)).Kind())
		assert.Equal(t, KindFloat, FromAny(1.21).Kind())
		assert.Equal(t, "1.21", FromAny(float32(1.21)).String())
		assert.Equal(t, KindBool, FromAny(true).Kind())
		assert.Equal(t, "abc", FromAny([]byte("abc")).String())
		assert.True(t, FromAny(nil).IsMissing())
		assert.True(t, FromAny(func() {}).IsMissing())
	})

	t.Run("map keys are sorted and nils dropped", func(t *testing.T) {
		v := FromAny(map[string]any{"z": 1, "a": "x", "n": nil})
		m, ok := v.AsMap()
		require.True(t, ok)
		assert.Equal(t, []string{"a", "z"}, m.Keys())
	})

	t.Run("struct fields", func(t *testing.T) {
		v := FromAny(&person{Name: "Jim", Age: 40, Secret: "s"})
		m, ok := v.AsMap()
		require.True(t, ok)
		assert.Equal(t, []string{"name", "age"}, m.Keys())
		age, _ := m.Get("age")
		assert.Equal(t, "40", age.String())
	})

	t.Run("lists", func(t *testing.T) {
		v := FromAny([]string{"a", "b"})
		items, ok := v.AsList()
		require.True(t, ok)
		assert.Len(t, items, 2)

		empty := FromAny([]int(nil))
		assert.Equal(t, KindList, empty.Kind())
		assert.False(t, empty.IsTrue())
	})

	t.Run("values pass through", func(t *testing.T) {
		v := FromString("x")
		assert.Equal(t, v, FromAny(v))
	})
}

func TestRepr(t *testing.T) {
	v := NewMapBuilder().
		Insert("a", "x").
		Insert("b", []int{1, 2}).
		Build()
	assert.Equal(t, `{"a": "x", "b": [1, 2]}`, v.Repr())
	assert.Equal(t, "missing", Missing().Repr())
}
