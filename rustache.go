// Package rustache renders Mustache templates.
//
// # Quick Start
//
//	out, err := rustache.Render("Hello, {{subject}}!", map[string]any{"subject": "world"})
//	// out == "Hello, world!"
//
// # Environment
//
// The Environment compiles templates and holds the settings renders use:
//
//	env := rustache.NewEnvironment()
//	env.SetLoader(loader.Map(map[string]string{
//	    "item": "<li>{{name}}</li>\n",
//	}))
//	tmpl, _ := env.TemplateFromString("<ul>\n{{#items}}\n  {{>item}}\n{{/items}}\n</ul>\n")
//	out, _ := tmpl.Render(map[string]any{
//	    "items": []map[string]string{{"name": "a"}, {"name": "b"}},
//	})
//
// A compiled Template is immutable and may be rendered concurrently.
//
// # Template Syntax
//
//   - Variables: {{name}}, {{a.b.c}}, {{.}} (HTML escaped)
//   - Unescaped variables: {{{name}}} and {{&name}}
//   - Sections: {{#list}}...{{/list}}, inverted: {{^list}}...{{/list}}
//   - Partials: {{>name}}
//   - Comments: {{! text }}
//   - Delimiter changes: {{=<% %>=}}
//
// Missing data is never an error: it renders as nothing and counts as
// false. Malformed tags, unbalanced sections and runaway nesting are
// reported as *Error values:
//
//	if errors.Is(err, rustache.ErrMismatched) { ... }
//
// # Values
//
// Render data may be any Go value; it is converted with value.FromAny.
// Use value.NewMapBuilder and value.NewListBuilder for explicit
// construction, or value.FromYAML to decode YAML and JSON documents.
package rustache

import (
	"io"

	"github.com/lovasoa/rustache/loader"
	"github.com/lovasoa/rustache/value"
)

// Version of the library.
const Version = "0.1.0"

// Value is the data a template is rendered against.
type Value = value.Value

// Value constructors
var (
	Missing   = value.Missing
	FromBool  = value.FromBool
	FromInt   = value.FromInt
	FromFloat = value.FromFloat
	FromStr   = value.FromString
	FromList  = value.FromList
	FromMap   = value.FromMap
	FromAny   = value.FromAny
)

// Render compiles src with default settings and renders it with data.
func Render(src string, data any) (string, error) {
	tmpl, err := NewEnvironment().TemplateFromString(src)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// RenderTo compiles src with default settings and renders it into w.
// Partials are resolved with partials, which may be nil.
func RenderTo(w io.Writer, src string, data any, partials loader.Func) error {
	env := NewEnvironment()
	env.SetLoader(partials)
	tmpl, err := env.TemplateFromString(src)
	if err != nil {
		return err
	}
	return tmpl.RenderTo(w, data)
}
