package rustache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovasoa/rustache/parser"
	"github.com/lovasoa/rustache/value"
)

func path(t *testing.T, name string) parser.Path {
	t.Helper()
	p, err := parser.SplitPath(name)
	require.NoError(t, err)
	return p
}

func TestStackLookupInnermostFirst(t *testing.T) {
	s := NewStack(value.FromAny(map[string]any{"a": "root", "b": "root-b"}))
	s.Push(value.FromAny(map[string]any{"a": "inner"}))

	assert.Equal(t, "inner", s.Resolve(path(t, "a")).String())
	assert.Equal(t, "root-b", s.Resolve(path(t, "b")).String())
	assert.True(t, s.Resolve(path(t, "c")).IsMissing())

	s.Pop()
	assert.Equal(t, "root", s.Resolve(path(t, "a")).String())
}

func TestStackSkipsScalarFrames(t *testing.T) {
	s := NewStack(value.FromAny(map[string]any{"name": "outer"}))
	s.Push(value.FromString("scalar"))

	assert.Equal(t, "outer", s.Resolve(path(t, "name")).String())
	assert.Equal(t, "scalar", s.Resolve(path(t, ".")).String())
}

func TestStackDottedPathIsLocalAfterFirstSegment(t *testing.T) {
	s := NewStack(value.FromAny(map[string]any{
		"b": map[string]any{"c": "ERROR"},
	}))
	s.Push(value.FromAny(map[string]any{"b": map[string]any{}}))

	assert.True(t, s.Resolve(path(t, "b.c")).IsMissing())
}

func TestStackBrokenChains(t *testing.T) {
	s := NewStack(value.FromAny(map[string]any{
		"a": map[string]any{"b": map[string]any{}},
		"c": map[string]any{"name": "Jim"},
		"s": "text",
	}))

	assert.True(t, s.Resolve(path(t, "a.b.c.name")).IsMissing())
	assert.True(t, s.Resolve(path(t, "s.len")).IsMissing())
	assert.True(t, s.Resolve(path(t, "x.y")).IsMissing())
	assert.Equal(t, "Jim", s.Resolve(path(t, "c.name")).String())
}

func TestStackRootIsNeverPopped(t *testing.T) {
	s := NewStack(value.FromInt(1))
	s.Pop()
	s.Pop()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "1", s.Top().String())
	assert.True(t, s.Resolve(nil).IsMissing())
}
