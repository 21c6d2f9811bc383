package rustache

import (
	"context"
	"io"

	"golang.org/x/text/transform"

	"github.com/lovasoa/rustache/loader"
	"github.com/lovasoa/rustache/logging"
	"github.com/lovasoa/rustache/parser"
	"github.com/lovasoa/rustache/scanner"
	"github.com/lovasoa/rustache/value"
)

// renderOptions is the part of an Environment a render needs. It is copied
// once per render so later setter calls do not affect a render in flight.
type renderOptions struct {
	loader   loader.Func
	maxDepth int
	escape   func(string) string
	logger   logging.Logger
}

// state holds the evaluation state of one render call.
type state struct {
	opts  renderOptions
	ctx   context.Context
	name  string // template currently being rendered
	stack *Stack
	depth int
}

func newState(opts renderOptions, name string, root value.Value) *state {
	return &state{
		opts:  opts,
		ctx:   context.Background(),
		name:  name,
		stack: NewStack(root),
	}
}

func (s *state) eval(w io.Writer, tmpl *parser.Template) error {
	return s.render(w, tmpl.Children)
}

func (s *state) render(w io.Writer, nodes []parser.Node) error {
	for _, node := range nodes {
		if err := s.renderNode(w, node); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) renderNode(w io.Writer, node parser.Node) error {
	switch n := node.(type) {
	case *parser.Text:
		return s.write(w, n.Text)
	case *parser.Variable:
		return s.renderVariable(w, n)
	case *parser.Section:
		return s.renderSection(w, n)
	case *parser.Partial:
		return s.renderPartial(w, n)
	default:
		return NewError(ErrMalformedTag, "unknown node").WithTemplate(s.name)
	}
}

func (s *state) write(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if _, err := io.WriteString(w, text); err != nil {
		return writeError(err)
	}
	return nil
}

func (s *state) renderVariable(w io.Writer, v *parser.Variable) error {
	text := s.stack.Resolve(v.Path).String()
	if v.Escape && s.opts.escape != nil {
		text = s.opts.escape(text)
	}
	return s.write(w, text)
}

func (s *state) renderSection(w io.Writer, sec *parser.Section) error {
	v := s.stack.Resolve(sec.Path)

	if sec.Inverted {
		if v.IsTrue() {
			return nil
		}
		return s.render(w, sec.Body)
	}
	if !v.IsTrue() {
		return nil
	}

	if items, ok := v.AsList(); ok {
		for _, item := range items {
			if err := s.withFrame(sec, item, func() error {
				return s.render(w, sec.Body)
			}); err != nil {
				return err
			}
		}
		return nil
	}
	return s.withFrame(sec, v, func() error {
		return s.render(w, sec.Body)
	})
}

// withFrame runs fn with v pushed as the innermost frame.
func (s *state) withFrame(sec *parser.Section, v value.Value, fn func() error) error {
	if err := s.enter(sec.Name, sec.Pos()); err != nil {
		return err
	}
	s.stack.Push(v)
	defer func() {
		s.stack.Pop()
		s.depth--
	}()
	return fn()
}

// enter bumps the nesting depth or fails once it passes the limit.
func (s *state) enter(name string, pos scanner.Pos) error {
	if s.opts.maxDepth > 0 && s.depth >= s.opts.maxDepth {
		return &Error{
			Kind:     ErrRecursionLimitExceeded,
			Message:  "nesting deeper than the configured limit",
			Name:     name,
			Template: s.name,
			Line:     pos.Line,
			Col:      pos.Col,
		}
	}
	s.depth++
	return nil
}

func (s *state) renderPartial(w io.Writer, p *parser.Partial) error {
	if s.opts.loader == nil {
		s.opts.logger.Debug(s.ctx, "partial not found", "partial", p.Name)
		return nil
	}
	text, ok := s.opts.loader(p.Name)
	if !ok {
		s.opts.logger.Debug(s.ctx, "partial not found", "partial", p.Name)
		return nil
	}

	// Partials never inherit a delimiter change from the including template.
	tmpl, err := parser.ParseString(text, scanner.DefaultDelimiters())
	if err != nil {
		return compileError(err, p.Name)
	}

	if err := s.enter(p.Name, p.Pos()); err != nil {
		return err
	}
	parent := s.name
	s.name = p.Name
	defer func() {
		s.name = parent
		s.depth--
	}()
	s.opts.logger.Debug(s.ctx, "partial expanded", "partial", p.Name, "depth", s.depth)

	if p.Indent == "" {
		return s.eval(w, tmpl)
	}
	iw := transform.NewWriter(w, newIndenter(p.Indent))
	if err := s.eval(iw, tmpl); err != nil {
		return err
	}
	if err := iw.Close(); err != nil {
		return writeError(err)
	}
	return nil
}
