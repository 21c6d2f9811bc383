package rustache

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/lovasoa/rustache/loader"
	"github.com/lovasoa/rustache/logging"
	"github.com/lovasoa/rustache/parser"
	"github.com/lovasoa/rustache/scanner"
	"github.com/lovasoa/rustache/value"
)

// DefaultMaxDepth is the nesting limit of a new Environment.
const DefaultMaxDepth = 500

// EscapeFunc escapes the text of a {{variable}} tag.
type EscapeFunc func(string) string

// Environment holds the configuration and named templates.
type Environment struct {
	mu        sync.RWMutex
	templates map[string]*Template
	loader    loader.Func
	maxDepth  int
	escape    EscapeFunc
	delims    scanner.Delimiters
	logger    logging.Logger
}

// NewEnvironment creates a new environment with default settings.
func NewEnvironment() *Environment {
	return &Environment{
		templates: make(map[string]*Template),
		maxDepth:  DefaultMaxDepth,
		escape:    EscapeHTML,
		delims:    scanner.DefaultDelimiters(),
		logger:    logging.Nop(),
	}
}

// SetLoader sets the function partials and unknown templates are loaded
// with.
func (e *Environment) SetLoader(l loader.Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loader = l
}

// SetMaxDepth limits how deeply sections and partials may nest during a
// render. Zero or a negative value disables the limit.
func (e *Environment) SetMaxDepth(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxDepth = n
}

// SetEscapeFunc replaces the escaping applied by {{variable}} tags. Nil
// restores EscapeHTML.
func (e *Environment) SetEscapeFunc(f EscapeFunc) {
	if f == nil {
		f = EscapeHTML
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.escape = f
}

// SetDelimiters sets the delimiters templates start with. Partials always
// start with {{ }}.
func (e *Environment) SetDelimiters(open, close string) error {
	d := scanner.Delimiters{Open: open, Close: close}
	if err := d.Validate(); err != nil {
		return NewError(ErrMalformedTag, err.Error())
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delims = d
	return nil
}

// SetLogger sets the logger. Nil disables logging.
func (e *Environment) SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = l.WithComponent("rustache")
}

// AddTemplate compiles source and stores it under name.
func (e *Environment) AddTemplate(name, source string) error {
	tmpl, err := e.TemplateFromNamedString(name, source)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// GetTemplate returns a stored template, falling back to the loader.
func (e *Environment) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	l := e.loader
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	if l != nil {
		if source, found := l(name); found {
			if err := e.AddTemplate(name, source); err != nil {
				return nil, err
			}
			return e.GetTemplate(name)
		}
	}
	return nil, &Error{Kind: ErrTemplateNotFound, Name: name}
}

// TemplateFromString compiles source without storing it.
func (e *Environment) TemplateFromString(source string) (*Template, error) {
	return e.TemplateFromNamedString("<string>", source)
}

// TemplateFromNamedString compiles source under a name without storing it.
func (e *Environment) TemplateFromNamedString(name, source string) (*Template, error) {
	e.mu.RLock()
	delims := e.delims
	logger := e.logger
	e.mu.RUnlock()

	root, err := parser.ParseString(source, delims)
	if err != nil {
		return nil, compileError(err, name)
	}
	logger.Debug(context.Background(), "template compiled", "template", name, "nodes", len(root.Children))

	return &Template{
		env:    e,
		name:   name,
		source: source,
		root:   root,
	}, nil
}

func (e *Environment) renderOptions() renderOptions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return renderOptions{
		loader:   e.loader,
		maxDepth: e.maxDepth,
		escape:   e.escape,
		logger:   e.logger,
	}
}

// Template is a compiled template. It is immutable and may be rendered
// from several goroutines at once.
type Template struct {
	env    *Environment
	name   string
	source string
	root   *parser.Template
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Source returns the template source.
func (t *Template) Source() string {
	return t.source
}

// Nodes returns the top level of the compiled node tree.
func (t *Template) Nodes() []parser.Node {
	return t.root.Children
}

// Render renders the template with the given data. Data is converted with
// value.FromAny.
func (t *Template) Render(data any) (string, error) {
	var b strings.Builder
	err := t.RenderTo(&b, data)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderValue renders the template with a Value context.
func (t *Template) RenderValue(root value.Value) (string, error) {
	var b strings.Builder
	if err := t.RenderValueTo(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderTo renders the template into w. On error, output written before
// the failure stays in w.
func (t *Template) RenderTo(w io.Writer, data any) error {
	return t.RenderValueTo(w, value.FromAny(data))
}

// RenderValueTo renders the template with a Value context into w.
func (t *Template) RenderValueTo(w io.Writer, root value.Value) error {
	opts := t.env.renderOptions()
	s := newState(opts, t.name, root)
	if err := s.eval(w, t.root); err != nil {
		opts.logger.Warn(s.ctx, err, "render aborted", "template", t.name)
		return err
	}
	return nil
}

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`"`, "&quot;",
	`<`, "&lt;",
	`>`, "&gt;",
)

// EscapeHTML replaces &, ", < and > with their HTML entities.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// NoEscape returns s unchanged.
func NoEscape(s string) string { return s }
