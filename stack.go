package rustache

import (
	"github.com/lovasoa/rustache/parser"
	"github.com/lovasoa/rustache/value"
)

// Stack is the context stack a template is rendered against. The root data
// is the bottom frame; each entered section pushes one more.
type Stack struct {
	frames []value.Value
}

// NewStack creates a stack holding only root.
func NewStack(root value.Value) *Stack {
	return &Stack{frames: []value.Value{root}}
}

// Push adds an innermost frame.
func (s *Stack) Push(v value.Value) {
	s.frames = append(s.frames, v)
}

// Pop removes the innermost frame. The root frame is never removed.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Len returns the number of frames.
func (s *Stack) Len() int { return len(s.frames) }

// Top returns the innermost frame.
func (s *Stack) Top() value.Value {
	return s.frames[len(s.frames)-1]
}

// Lookup finds name in the innermost map frame that has it. Frames that are
// not maps are skipped.
func (s *Stack) Lookup(name string) value.Value {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].Get(name); ok {
			return v
		}
	}
	return value.Missing()
}

// Resolve evaluates a tag path. The first segment is looked up through the
// whole stack; every following segment only inside the value found for the
// previous one. A chain that breaks anywhere yields Missing.
func (s *Stack) Resolve(path parser.Path) value.Value {
	if path.IsImplicit() {
		return s.Top()
	}
	if len(path) == 0 {
		return value.Missing()
	}
	v := s.Lookup(path[0])
	for _, segment := range path[1:] {
		next, ok := v.Get(segment)
		if !ok {
			return value.Missing()
		}
		v = next
	}
	return v
}
