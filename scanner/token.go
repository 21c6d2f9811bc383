package scanner

import "fmt"

// TokenType represents the type of a token.
type TokenType int

const (
	// Literal template text
	TokenText TokenType = iota

	TokenVariable      // {{name}}
	TokenUnescaped     // {{{name}}} or {{&name}}
	TokenSectionOpen   // {{#name}}
	TokenInvertedOpen  // {{^name}}
	TokenSectionClose  // {{/name}}
	TokenPartial       // {{>name}}
	TokenComment       // {{!comment}}
	TokenSetDelimiters // {{=open close=}}
)

var tokenTypeNames = map[TokenType]string{
	TokenText:          "Text",
	TokenVariable:      "Variable",
	TokenUnescaped:     "Unescaped",
	TokenSectionOpen:   "SectionOpen",
	TokenInvertedOpen:  "InvertedOpen",
	TokenSectionClose:  "SectionClose",
	TokenPartial:       "Partial",
	TokenComment:       "Comment",
	TokenSetDelimiters: "SetDelimiters",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// CanStandalone reports whether a tag of this type is elided together with
// its surrounding whitespace when it sits alone on a line.
func (t TokenType) CanStandalone() bool {
	switch t {
	case TokenSectionOpen, TokenInvertedOpen, TokenSectionClose,
		TokenPartial, TokenComment, TokenSetDelimiters:
		return true
	default:
		return false
	}
}

// Pos is a location in template source. Line and Col are 1-based.
type Pos struct {
	Line   int
	Col    int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single unit of scanner output.
type Token struct {
	Type TokenType
	// Value is the literal text for TokenText, the trimmed tag content
	// otherwise.
	Value string
	// Standalone is set when the tag was alone on its line and the line's
	// whitespace and newline were elided.
	Standalone bool
	// Indent is the whitespace that preceded a standalone partial tag.
	Indent string
	// Delims is the new pair introduced by a TokenSetDelimiters tag.
	Delims Delimiters
	Pos    Pos
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch {
	case t.Type == TokenPartial && t.Indent != "":
		return fmt.Sprintf("%s(%q indent=%q)", t.Type, t.Value, t.Indent)
	case t.Standalone:
		return fmt.Sprintf("%s(%q standalone)", t.Type, t.Value)
	default:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	}
}
