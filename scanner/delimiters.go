package scanner

import (
	"fmt"
	"strings"
)

// Delimiters holds the pair of markers that open and close a tag.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters returns the standard "{{" / "}}" pair.
func DefaultDelimiters() Delimiters {
	return Delimiters{Open: "{{", Close: "}}"}
}

// ParseDelimiters parses the body of a set-delimiter tag, "<open> <close>".
func ParseDelimiters(s string) (Delimiters, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Delimiters{}, fmt.Errorf("expected two delimiters separated by whitespace, got %q", s)
	}
	d := Delimiters{Open: fields[0], Close: fields[1]}
	if err := d.Validate(); err != nil {
		return Delimiters{}, err
	}
	return d, nil
}

// Validate checks that both markers are non-empty and free of whitespace
// and '='.
func (d Delimiters) Validate() error {
	for _, m := range []string{d.Open, d.Close} {
		if m == "" {
			return fmt.Errorf("delimiter must not be empty")
		}
		if strings.ContainsAny(m, " \t\r\n=") {
			return fmt.Errorf("delimiter %q must not contain whitespace or '='", m)
		}
	}
	return nil
}

func (d Delimiters) String() string {
	return d.Open + " " + d.Close
}
