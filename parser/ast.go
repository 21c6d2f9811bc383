package parser

import (
	"fmt"
	"strings"

	"github.com/lovasoa/rustache/scanner"
)

// Pos is a location in template source.
type Pos = scanner.Pos

// Node is the interface implemented by all tree nodes. The set of node types
// is closed: Text, Variable, Section and Partial.
type Node interface {
	node()
	Pos() Pos
}

// Template is the root of a parsed template.
type Template struct {
	Children []Node
}

// Text is literal template text, written verbatim.
type Text struct {
	Text string
	pos  Pos
}

func (t *Text) node()    {}
func (t *Text) Pos() Pos { return t.pos }

// Variable interpolates the value found at Path.
type Variable struct {
	Name   string
	Path   Path
	Escape bool
	pos    Pos
}

func (v *Variable) node()    {}
func (v *Variable) Pos() Pos { return v.pos }

// Section renders Body depending on the value found at Path.
type Section struct {
	Name     string
	Path     Path
	Inverted bool
	Body     []Node
	pos      Pos
}

func (s *Section) node()    {}
func (s *Section) Pos() Pos { return s.pos }

// Partial expands the named sub-template in the current context. Indent is
// non-empty when the tag was standalone and indented.
type Partial struct {
	Name   string
	Indent string
	pos    Pos
}

func (p *Partial) node()    {}
func (p *Partial) Pos() Pos { return p.pos }

// Path is a dotted name split into its segments. The implicit iterator "."
// is the single segment ".".
type Path []string

// SplitPath splits a tag name on dots. Empty segments are rejected.
func SplitPath(name string) (Path, error) {
	if name == "." {
		return Path{"."}, nil
	}
	segments := strings.Split(name, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid dotted name %q", name)
		}
	}
	return Path(segments), nil
}

// IsImplicit reports whether p is the implicit iterator ".".
func (p Path) IsImplicit() bool {
	return len(p) == 1 && p[0] == "."
}

func (p Path) String() string {
	return strings.Join(p, ".")
}
