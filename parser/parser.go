// Package parser builds the node tree of a mustache template from scanner
// tokens.
//
// Sections nest: every {{#name}} or {{^name}} must be closed by a {{/name}}
// with the same name before any enclosing section is closed. Comments and
// set-delimiter tags leave no node behind; they only affect scanning. Dotted
// names are split into paths here and resolved at render time.
package parser

import (
	"fmt"

	"github.com/lovasoa/rustache/scanner"
)

// ErrorKind describes the type of a parse error.
type ErrorKind int

const (
	ErrMalformedTag ErrorKind = iota
	ErrMismatchedSection
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedTag:
		return "malformed tag"
	case ErrMismatchedSection:
		return "mismatched section"
	default:
		return "parse error"
	}
}

// Error represents a parse error.
type Error struct {
	Kind    ErrorKind
	Name    string // offending tag name
	Message string
	Pos     Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q at %s: %s", e.Kind, e.Name, e.Pos, e.Message)
}

// Parser turns a token sequence into a Template.
type Parser struct {
	tokens []scanner.Token
	pos    int
	root   *Template
	open   []*Section
}

// Parse builds the node tree for tokens.
func Parse(tokens []scanner.Token) (*Template, error) {
	p := &Parser{
		tokens: tokens,
		root:   &Template{},
	}
	return p.parse()
}

// ParseString scans src starting with delims and parses the result.
func ParseString(src string, delims scanner.Delimiters) (*Template, error) {
	tokens, _, err := scanner.Scan(src, delims)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

func (p *Parser) parse() (*Template, error) {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if err := p.consume(tok); err != nil {
			return nil, err
		}
	}
	if n := len(p.open); n > 0 {
		unclosed := p.open[n-1]
		return nil, &Error{
			Kind:    ErrMismatchedSection,
			Name:    unclosed.Name,
			Message: "section is never closed",
			Pos:     unclosed.pos,
		}
	}
	return p.root, nil
}

func (p *Parser) consume(tok scanner.Token) error {
	switch tok.Type {
	case scanner.TokenText:
		p.append(&Text{Text: tok.Value, pos: tok.Pos})

	case scanner.TokenVariable, scanner.TokenUnescaped:
		path, err := p.path(tok)
		if err != nil {
			return err
		}
		p.append(&Variable{
			Name:   tok.Value,
			Path:   path,
			Escape: tok.Type == scanner.TokenVariable,
			pos:    tok.Pos,
		})

	case scanner.TokenSectionOpen, scanner.TokenInvertedOpen:
		path, err := p.path(tok)
		if err != nil {
			return err
		}
		section := &Section{
			Name:     tok.Value,
			Path:     path,
			Inverted: tok.Type == scanner.TokenInvertedOpen,
			pos:      tok.Pos,
		}
		p.append(section)
		p.open = append(p.open, section)

	case scanner.TokenSectionClose:
		return p.closeSection(tok)

	case scanner.TokenPartial:
		p.append(&Partial{Name: tok.Value, Indent: tok.Indent, pos: tok.Pos})

	case scanner.TokenComment, scanner.TokenSetDelimiters:
		// scanning only

	default:
		return &Error{
			Kind:    ErrMalformedTag,
			Name:    tok.Value,
			Message: fmt.Sprintf("unsupported token %s", tok.Type),
			Pos:     tok.Pos,
		}
	}
	return nil
}

func (p *Parser) closeSection(tok scanner.Token) error {
	n := len(p.open)
	if n == 0 {
		return &Error{
			Kind:    ErrMismatchedSection,
			Name:    tok.Value,
			Message: "close tag without an open section",
			Pos:     tok.Pos,
		}
	}
	innermost := p.open[n-1]
	if innermost.Name != tok.Value {
		return &Error{
			Kind:    ErrMismatchedSection,
			Name:    tok.Value,
			Message: fmt.Sprintf("expected close tag for %q opened at %s", innermost.Name, innermost.pos),
			Pos:     tok.Pos,
		}
	}
	p.open = p.open[:n-1]
	return nil
}

// append adds n to the body of the innermost open section, or to the root.
func (p *Parser) append(n Node) {
	if len(p.open) == 0 {
		p.root.Children = append(p.root.Children, n)
		return
	}
	section := p.open[len(p.open)-1]
	section.Body = append(section.Body, n)
}

func (p *Parser) path(tok scanner.Token) (Path, error) {
	path, err := SplitPath(tok.Value)
	if err != nil {
		return nil, &Error{
			Kind:    ErrMalformedTag,
			Name:    tok.Value,
			Message: err.Error(),
			Pos:     tok.Pos,
		}
	}
	return path, nil
}
