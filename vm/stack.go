package vm

import (
	"fmt"
)

// Stack is the operand stack. Its top is the accumulator.
type Stack struct {
	data []Value
	ptr  int

	depth int
}

type StackOpt func(*Stack) *Stack

func MaxStack(max int) StackOpt {
	return func(s *Stack) *Stack {
		if max > 0 {
			s.depth = max
		}
		return s
	}
}

func NewStack(opts ...StackOpt) *Stack {
	s := &Stack{
		ptr:   0,
		depth: 1024,
	}
	for _, opt := range opts {
		s = opt(s)
	}
	s.data = make([]Value, s.depth)
	return s
}

func (s *Stack) Push(v Value) error {
	if s.ptr == s.depth {
		return fmt.Errorf("%w: depth %d", ErrStackOverflow, s.depth)
	}
	s.data[s.ptr] = v
	s.ptr += 1

	return nil
}

func (s *Stack) Pop() (Value, error) {
	if s.Empty() {
		return Null(), ErrStackUnderflow
	}
	// ptr is at the next write slot, one ahead of the read slot
	v := s.data[s.ptr-1]
	s.data[s.ptr-1] = Null()
	s.ptr -= 1

	return v, nil
}

func (s *Stack) Peek() (Value, error) {
	if s.Empty() {
		return Null(), ErrStackUnderflow
	}
	return s.data[s.ptr-1], nil
}

// Replace overwrites the top of the stack.
func (s *Stack) Replace(v Value) error {
	if s.Empty() {
		return ErrStackUnderflow
	}
	s.data[s.ptr-1] = v
	return nil
}

func (s *Stack) Empty() bool {
	return s.ptr == 0
}

func (s *Stack) Len() int {
	return s.ptr
}

// Values copies the live part of the stack, bottom first.
func (s *Stack) Values() []Value {
	out := make([]Value, s.ptr)
	copy(out, s.data[:s.ptr])
	return out
}
