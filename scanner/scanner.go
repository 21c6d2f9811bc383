// Package scanner splits mustache template source into text and tag tokens.
//
// Scanning is a single pass over the source. Each tag is classified by the
// sigil that follows the open delimiter, its content is trimmed, and tags that
// sit alone on a line (sections, inverted sections, closes, partials, comments
// and set-delimiter tags) are made standalone: the whitespace before the tag
// on that line, the tag itself and one trailing line ending are dropped from
// the output. Variable tags are never standalone.
//
// A set-delimiter tag changes the delimiters for the remainder of the same
// source. The delimiters in effect at the end of the scan are returned, so
// scanning stays reentrant: nothing is kept between calls.
package scanner

import (
	"fmt"
	"sort"
	"strings"
)

// Error is returned for unterminated or syntactically invalid tags.
type Error struct {
	Message string
	Tag     string
	Pos     Pos
}

func (e *Error) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("malformed tag %q at %s: %s", e.Tag, e.Pos, e.Message)
	}
	return fmt.Sprintf("malformed tag at %s: %s", e.Pos, e.Message)
}

// Scanner tokenizes a single template source.
type Scanner struct {
	src      string
	pos      int
	delims   Delimiters
	newlines []int
	tokens   []Token
}

// New creates a scanner for src starting with delims.
func New(src string, delims Delimiters) *Scanner {
	var newlines []int
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			newlines = append(newlines, i)
		}
	}
	return &Scanner{
		src:      src,
		delims:   delims,
		newlines: newlines,
	}
}

// Scan tokenizes src with delims as the starting delimiters and returns the
// tokens together with the delimiters in effect at the end of src.
func Scan(src string, delims Delimiters) ([]Token, Delimiters, error) {
	s := New(src, delims)
	tokens, err := s.All()
	if err != nil {
		return nil, delims, err
	}
	return tokens, s.Delimiters(), nil
}

// Delimiters returns the delimiters currently in effect.
func (s *Scanner) Delimiters() Delimiters {
	return s.delims
}

// All scans the remaining source.
func (s *Scanner) All() ([]Token, error) {
	if err := s.delims.Validate(); err != nil {
		return nil, &Error{Message: err.Error(), Pos: s.position(s.pos)}
	}
	for s.pos < len(s.src) {
		idx := strings.Index(s.src[s.pos:], s.delims.Open)
		if idx < 0 {
			s.emitText(s.pos, len(s.src))
			s.pos = len(s.src)
			break
		}
		start := s.pos + idx
		s.emitText(s.pos, start)

		tok, end, err := s.scanTag(start)
		if err != nil {
			return nil, err
		}
		if tok.Type.CanStandalone() {
			if indent, next, ok := s.standalone(start, end); ok {
				s.trimIndent(len(indent))
				tok.Standalone = true
				if tok.Type == TokenPartial {
					tok.Indent = indent
				}
				end = next
			}
		}
		s.tokens = append(s.tokens, tok)
		if tok.Type == TokenSetDelimiters {
			s.delims = tok.Delims
		}
		s.pos = end
	}
	return s.tokens, nil
}

func (s *Scanner) emitText(start, end int) {
	if start >= end {
		return
	}
	s.tokens = append(s.tokens, Token{
		Type:  TokenText,
		Value: s.src[start:end],
		Pos:   s.position(start),
	})
}

// trimIndent removes the last n bytes of the most recent text token. The
// indentation of a standalone tag always lies inside that token because it
// contains no tag and starts at or after the end of the previous tag.
func (s *Scanner) trimIndent(n int) {
	if n == 0 || len(s.tokens) == 0 {
		return
	}
	last := &s.tokens[len(s.tokens)-1]
	if last.Type != TokenText {
		return
	}
	last.Value = last.Value[:len(last.Value)-n]
	if last.Value == "" {
		s.tokens = s.tokens[:len(s.tokens)-1]
	}
}

// standalone checks whether the tag spanning [start, end) is the only
// non-blank content of its line. It returns the leading indentation and the
// offset just past the trailing line ending.
func (s *Scanner) standalone(start, end int) (string, int, bool) {
	lineStart := strings.LastIndexByte(s.src[:start], '\n') + 1
	indent := s.src[lineStart:start]
	if !isBlank(indent) {
		return "", 0, false
	}

	rest := s.src[end:]
	next := len(s.src)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
		next = end + nl + 1
	}
	if !isBlank(strings.TrimSuffix(rest, "\r")) {
		return "", 0, false
	}
	return indent, next, true
}

func (s *Scanner) scanTag(start int) (Token, int, error) {
	open, closing := s.delims.Open, s.delims.Close
	pos := s.position(start)
	p := start + len(open)
	if p >= len(s.src) {
		return Token{}, 0, &Error{Message: "unclosed tag at end of template", Pos: pos}
	}

	tok := Token{Pos: pos}
	var body string
	var end int
	var err error

	switch sigil := s.src[p]; sigil {
	case '{':
		tok.Type = TokenUnescaped
		body, end, err = s.until(p+1, "}"+closing, pos)
	case '=':
		tok.Type = TokenSetDelimiters
		body, end, err = s.until(p+1, "="+closing, pos)
	case '&':
		tok.Type = TokenUnescaped
		body, end, err = s.until(p+1, closing, pos)
	case '#':
		tok.Type = TokenSectionOpen
		body, end, err = s.until(p+1, closing, pos)
	case '^':
		tok.Type = TokenInvertedOpen
		body, end, err = s.until(p+1, closing, pos)
	case '/':
		tok.Type = TokenSectionClose
		body, end, err = s.until(p+1, closing, pos)
	case '>':
		tok.Type = TokenPartial
		body, end, err = s.until(p+1, closing, pos)
	case '!':
		tok.Type = TokenComment
		body, end, err = s.until(p+1, closing, pos)
	default:
		tok.Type = TokenVariable
		body, end, err = s.until(p, closing, pos)
	}
	if err != nil {
		return Token{}, 0, err
	}

	tok.Value = strings.TrimSpace(body)
	switch tok.Type {
	case TokenComment:
	case TokenSetDelimiters:
		d, err := ParseDelimiters(tok.Value)
		if err != nil {
			return Token{}, 0, &Error{Message: err.Error(), Tag: s.src[start:end], Pos: pos}
		}
		tok.Delims = d
	default:
		if tok.Value == "" {
			return Token{}, 0, &Error{Message: "empty tag name", Tag: s.src[start:end], Pos: pos}
		}
		if strings.ContainsAny(tok.Value, " \t\r\n") {
			return Token{}, 0, &Error{Message: "tag name contains whitespace", Tag: s.src[start:end], Pos: pos}
		}
	}
	return tok, end, nil
}

// until returns the source between from and the next occurrence of closer,
// and the offset just past closer.
func (s *Scanner) until(from int, closer string, pos Pos) (string, int, error) {
	idx := strings.Index(s.src[from:], closer)
	if idx < 0 {
		return "", 0, &Error{Message: fmt.Sprintf("unclosed tag, expected %q", closer), Pos: pos}
	}
	return s.src[from : from+idx], from + idx + len(closer), nil
}

func (s *Scanner) position(offset int) Pos {
	i := sort.SearchInts(s.newlines, offset)
	col := offset + 1
	if i > 0 {
		col = offset - s.newlines[i-1]
	}
	return Pos{Line: i + 1, Col: col, Offset: offset}
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return false
		}
	}
	return true
}
