package rustache

import (
	"bytes"

	"golang.org/x/text/transform"
)

// indenter prefixes every line of its input with a fixed string. A prefix
// is only emitted once the first byte of a line arrives, so output ending
// in a newline does not get a dangling prefix.
type indenter struct {
	prefix    []byte
	lineStart bool
	// written counts prefix bytes already emitted for the current line.
	written int
}

func newIndenter(prefix string) *indenter {
	return &indenter{prefix: []byte(prefix), lineStart: true}
}

func (t *indenter) Reset() {
	t.lineStart = true
	t.written = 0
}

func (t *indenter) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if t.lineStart {
			n := copy(dst[nDst:], t.prefix[t.written:])
			nDst += n
			t.written += n
			if t.written < len(t.prefix) {
				return nDst, nSrc, transform.ErrShortDst
			}
			t.written = 0
			t.lineStart = false
		}

		line := src[nSrc:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i+1]
		}
		n := copy(dst[nDst:], line)
		nDst += n
		nSrc += n
		if n < len(line) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if line[len(line)-1] == '\n' {
			t.lineStart = true
		}
	}
	return nDst, nSrc, nil
}
