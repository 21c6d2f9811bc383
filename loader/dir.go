package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultExtension is appended to partial names by Dir.
const DefaultExtension = ".mustache"

// Dir loads partials from files below a root directory.
//
// The partial name is used as a slash separated path relative to the root,
// so {{> emails/footer}} reads emails/footer.mustache. Names that would
// leave the root are rejected. File contents are cached until Invalidate or
// Reset is called.
type Dir struct {
	root string
	ext  string

	mu    sync.RWMutex
	cache map[string]string
	// gen changes on every invalidation; a read that overlaps one is not
	// cached.
	gen uint64
}

// readFile reads partial files.
var readFile = os.ReadFile

// NewDir creates a loader rooted at root. An empty ext selects
// DefaultExtension and "." disables the suffix.
func NewDir(root, ext string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving partials directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening partials directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("partials path %s is not a directory", root)
	}
	switch ext {
	case "":
		ext = DefaultExtension
	case ".":
		ext = ""
	}
	return &Dir{root: abs, ext: ext, cache: make(map[string]string)}, nil
}

// Root returns the absolute directory partials are read from.
func (d *Dir) Root() string { return d.root }

// Load reads the named partial. Missing files and unsafe names report false.
func (d *Dir) Load(name string) (string, bool) {
	d.mu.RLock()
	text, ok := d.cache[name]
	gen := d.gen
	d.mu.RUnlock()
	if ok {
		return text, true
	}

	path, err := d.Path(name)
	if err != nil {
		return "", false
	}
	content, err := readFile(path)
	if err != nil {
		return "", false
	}

	text = string(content)
	d.mu.Lock()
	if d.gen == gen {
		d.cache[name] = text
	}
	d.mu.Unlock()
	return text, true
}

// Func exposes Load as a Func.
func (d *Dir) Func() Func { return d.Load }

// Path returns the file a partial name maps to.
func (d *Dir) Path(name string) (string, error) {
	rel := filepath.FromSlash(name + d.ext)
	if name == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("partial name %q escapes %s", name, d.root)
	}
	return filepath.Join(d.root, rel), nil
}

// Name maps a file below the root back to the partial name it serves.
func (d *Dir) Name(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(d.root, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	if d.ext != "" {
		if !strings.HasSuffix(rel, d.ext) {
			return "", false
		}
		rel = strings.TrimSuffix(rel, d.ext)
	}
	return filepath.ToSlash(rel), true
}

// Invalidate drops one cached partial.
func (d *Dir) Invalidate(name string) {
	d.mu.Lock()
	delete(d.cache, name)
	d.gen++
	d.mu.Unlock()
}

// Reset drops every cached partial.
func (d *Dir) Reset() {
	d.mu.Lock()
	d.cache = make(map[string]string)
	d.gen++
	d.mu.Unlock()
}

// Names lists every partial available below the root, sorted.
func (d *Dir) Names() ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if name, ok := d.Name(path); ok {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing partials: %w", err)
	}
	return names, nil
}
