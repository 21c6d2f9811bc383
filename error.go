package rustache

import (
	"errors"
	"fmt"

	"github.com/lovasoa/rustache/parser"
	"github.com/lovasoa/rustache/scanner"
)

// ErrorKind describes the type of error.
type ErrorKind int

const (
	ErrMalformedTag ErrorKind = iota
	ErrMismatchedSection
	ErrRecursionLimitExceeded
	ErrTemplateNotFound
	ErrWrite
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedTag:
		return "malformed tag"
	case ErrMismatchedSection:
		return "mismatched section"
	case ErrRecursionLimitExceeded:
		return "recursion limit exceeded"
	case ErrTemplateNotFound:
		return "template not found"
	case ErrWrite:
		return "write error"
	default:
		return "error"
	}
}

// Sentinels for use with errors.Is. They match any *Error of the same kind.
var (
	ErrMalformed      = &Error{Kind: ErrMalformedTag}
	ErrMismatched     = &Error{Kind: ErrMismatchedSection}
	ErrRecursionLimit = &Error{Kind: ErrRecursionLimitExceeded}
	ErrNotFound       = &Error{Kind: ErrTemplateNotFound}
)

// Error represents an error that occurred while compiling or rendering a
// template.
type Error struct {
	Kind     ErrorKind
	Message  string
	Name     string // offending tag, section or partial name
	Template string // template the error was found in
	Line     int
	Col      int

	cause error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	switch {
	case e.Template != "" && e.Line > 0:
		return fmt.Sprintf("%s (at %s line %d col %d)", msg, e.Template, e.Line, e.Col)
	case e.Line > 0:
		return fmt.Sprintf("%s (at line %d col %d)", msg, e.Line, e.Col)
	case e.Template != "":
		return fmt.Sprintf("%s (in %s)", msg, e.Template)
	}
	return msg
}

// Unwrap returns the underlying error of a write failure.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates a new error.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WithTemplate records the template name on the error unless one is
// already set.
func (e *Error) WithTemplate(name string) *Error {
	if e.Template == "" {
		e.Template = name
	}
	return e
}

// compileError converts scanner and parser failures into *Error.
func compileError(err error, template string) error {
	var scanErr *scanner.Error
	if errors.As(err, &scanErr) {
		return &Error{
			Kind:     ErrMalformedTag,
			Message:  scanErr.Message,
			Name:     scanErr.Tag,
			Template: template,
			Line:     scanErr.Pos.Line,
			Col:      scanErr.Pos.Col,
			cause:    err,
		}
	}
	var parseErr *parser.Error
	if errors.As(err, &parseErr) {
		kind := ErrMalformedTag
		if parseErr.Kind == parser.ErrMismatchedSection {
			kind = ErrMismatchedSection
		}
		return &Error{
			Kind:     kind,
			Message:  parseErr.Message,
			Name:     parseErr.Name,
			Template: template,
			Line:     parseErr.Pos.Line,
			Col:      parseErr.Pos.Col,
			cause:    err,
		}
	}
	return err
}

func writeError(err error) error {
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{Kind: ErrWrite, Message: err.Error(), cause: err}
}
