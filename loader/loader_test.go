package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMapAndChain(t *testing.T) {
	first := Map(map[string]string{"a": "first"})
	second := Map(map[string]string{"a": "shadowed", "b": "second"})
	chain := Chain(nil, first, second)

	text, ok := chain("a")
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	text, ok = chain("b")
	assert.True(t, ok)
	assert.Equal(t, "second", text)

	_, ok = chain("c")
	assert.False(t, ok)

	_, ok = None("a")
	assert.False(t, ok)
}

func TestMapEmptyPartialIsFound(t *testing.T) {
	text, ok := Map(map[string]string{"empty": ""})("empty")
	assert.True(t, ok)
	assert.Empty(t, text)
}

func TestDirLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "header.mustache"), "<h1>{{title}}</h1>")
	writeFile(t, filepath.Join(root, "test_data", "partial.mustache"), "nested")

	d, err := NewDir(root, "")
	require.NoError(t, err)

	text, ok := d.Load("header")
	require.True(t, ok)
	assert.Equal(t, "<h1>{{title}}</h1>", text)

	text, ok = d.Func()("test_data/partial")
	require.True(t, ok)
	assert.Equal(t, "nested", text)

	_, ok = d.Load("missing")
	assert.False(t, ok)
}

func TestDirRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(filepath.Dir(root), "secret.mustache"), "secret")

	d, err := NewDir(root, "")
	require.NoError(t, err)

	for _, name := range []string{"../secret", "/etc/passwd", ""} {
		_, ok := d.Load(name)
		assert.False(t, ok, name)
		_, err := d.Path(name)
		assert.Error(t, err, name)
	}
}

func TestDirCacheAndInvalidate(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p.mustache")
	writeFile(t, path, "v1")

	d, err := NewDir(root, "")
	require.NoError(t, err)

	text, _ := d.Load("p")
	assert.Equal(t, "v1", text)

	writeFile(t, path, "v2")
	text, _ = d.Load("p")
	assert.Equal(t, "v1", text, "served from cache")

	d.Invalidate("p")
	text, _ = d.Load("p")
	assert.Equal(t, "v2", text)

	writeFile(t, path, "v3")
	d.Reset()
	text, _ = d.Load("p")
	assert.Equal(t, "v3", text)
}

func TestDirInvalidateDuringRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p.mustache")
	writeFile(t, path, "old")

	d, err := NewDir(root, "")
	require.NoError(t, err)

	// The file changes and is invalidated after it was read but before the
	// text reaches the cache.
	original := readFile
	t.Cleanup(func() { readFile = original })
	readFile = func(name string) ([]byte, error) {
		content, err := original(name)
		writeFile(t, path, "new")
		d.Invalidate("p")
		return content, err
	}

	text, ok := d.Load("p")
	require.True(t, ok)
	assert.Equal(t, "old", text)

	readFile = original
	text, _ = d.Load("p")
	assert.Equal(t, "new", text, "stale text was not cached")
}

func TestDirCustomExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "html")
	writeFile(t, filepath.Join(root, "b"), "bare")

	d, err := NewDir(root, ".html")
	require.NoError(t, err)
	text, ok := d.Load("a")
	assert.True(t, ok)
	assert.Equal(t, "html", text)

	bare, err := NewDir(root, ".")
	require.NoError(t, err)
	text, ok = bare.Load("b")
	assert.True(t, ok)
	assert.Equal(t, "bare", text)
}

func TestDirNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.mustache"), "")
	writeFile(t, filepath.Join(root, "a", "c.mustache"), "")
	writeFile(t, filepath.Join(root, "ignored.txt"), "")

	d, err := NewDir(root, "")
	require.NoError(t, err)
	names, err := d.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c", "b"}, names)

	name, ok := d.Name(filepath.Join(root, "a", "c.mustache"))
	assert.True(t, ok)
	assert.Equal(t, "a/c", name)
}

func TestNewDirErrors(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "")
	_, err = NewDir(file, "")
	assert.Error(t, err)
}

func TestWatchInvalidatesCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p.mustache")
	writeFile(t, path, "before")

	d, err := NewDir(root, "")
	require.NoError(t, err)
	text, _ := d.Load("p")
	require.Equal(t, "before", text)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := Watch(ctx, d, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan []string, 4)
	w.OnChange(func(names []string) { changed <- names })

	writeFile(t, path, "after")

	select {
	case names := <-changed:
		assert.Equal(t, []string{"p"}, names)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	text, _ = d.Load("p")
	assert.Equal(t, "after", text)
}
