package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovasoa/rustache/scanner"
)

// dump renders a tree in a compact form for comparisons.
func dump(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			fmt.Fprintf(&b, "%q", n.Text)
		case *Variable:
			if n.Escape {
				fmt.Fprintf(&b, "{%s}", n.Path)
			} else {
				fmt.Fprintf(&b, "{&%s}", n.Path)
			}
		case *Section:
			sigil := "#"
			if n.Inverted {
				sigil = "^"
			}
			fmt.Fprintf(&b, "[%s%s %s]", sigil, n.Name, dump(n.Body))
		case *Partial:
			fmt.Fprintf(&b, "<%s|%q>", n.Name, n.Indent)
		}
	}
	return b.String()
}

func parse(t *testing.T, src string) *Template {
	t.Helper()
	tmpl, err := ParseString(src, scanner.DefaultDelimiters())
	require.NoError(t, err)
	return tmpl
}

func TestParseTree(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		expected string
	}{
		{"text only", "Hello", `"Hello"`},
		{"variables", "{{a}}{{{b}}}{{&c.d}}", `{a}{&b}{&c.d}`},
		{"section", "{{#a}}x{{/a}}", `[#a "x"]`},
		{"inverted", "{{^a}}x{{/a}}", `[^a "x"]`},
		{"nested", "{{#a}}{{#b}}{{c}}{{/b}}{{/a}}", `[#a [#b {c}]]`},
		{"same name nested", "{{#a}}{{#a}}x{{/a}}{{/a}}", `[#a [#a "x"]]`},
		{"partial", "a{{>p}}b", `"a"<p|"">"b"`},
		{"comments vanish", "a{{! note }}b", `"a""b"`},
		{"set delimiters vanish", "{{=<% %>=}}<%x%>", `{x}`},
		{"standalone partial", "  {{>p}}\n", `<p|"  ">`},
		{"implicit iterator", "{{#list}}{{.}}{{/list}}", `[#list {.}]`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, dump(parse(t, tc.src).Children))
		})
	}
}

func TestParseKeepsDottedSegments(t *testing.T) {
	tmpl := parse(t, "{{a.b.c}}")
	require.Len(t, tmpl.Children, 1)
	v, ok := tmpl.Children[0].(*Variable)
	require.True(t, ok)
	assert.Equal(t, Path{"a", "b", "c"}, v.Path)
	assert.Equal(t, "a.b.c", v.Name)
	assert.True(t, v.Escape)
}

func TestParseSectionPosition(t *testing.T) {
	tmpl := parse(t, "line\n  {{#a}}{{/a}}")
	require.Len(t, tmpl.Children, 2)
	s, ok := tmpl.Children[1].(*Section)
	require.True(t, ok)
	assert.Equal(t, 2, s.Pos().Line)
	assert.Equal(t, 3, s.Pos().Col)
}

func TestParseMismatchedSections(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		errName string
	}{
		{"wrong close", "{{#a}}{{/b}}", "b"},
		{"close without open", "x{{/a}}", "a"},
		{"unclosed", "{{#a}}{{#b}}{{/b}}", "a"},
		{"unclosed inner", "{{#a}}{{^b}}", "b"},
		{"crossed", "{{#a}}{{#b}}{{/a}}{{/b}}", "a"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(tc.src, scanner.DefaultDelimiters())
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ErrMismatchedSection, perr.Kind)
			assert.Equal(t, tc.errName, perr.Name)
			assert.Contains(t, perr.Error(), "mismatched section")
		})
	}
}

func TestParseMalformedPaths(t *testing.T) {
	for _, src := range []string{"{{a..b}}", "{{.a}}", "{{#a.}}{{/a.}}"} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseString(src, scanner.DefaultDelimiters())
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, ErrMalformedTag, perr.Kind)
		})
	}
}

func TestParseStringPropagatesScanErrors(t *testing.T) {
	_, err := ParseString("{{oops", scanner.DefaultDelimiters())
	var serr *scanner.Error
	assert.ErrorAs(t, err, &serr)
}

func TestSplitPath(t *testing.T) {
	p, err := SplitPath("a.b")
	require.NoError(t, err)
	assert.Equal(t, Path{"a", "b"}, p)
	assert.False(t, p.IsImplicit())

	p, err = SplitPath(".")
	require.NoError(t, err)
	assert.True(t, p.IsImplicit())

	_, err = SplitPath("a.")
	assert.Error(t, err)
}
