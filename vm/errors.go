package vm

import (
	"errors"
	"fmt"
)

var (
	ErrLookup            = errors.New("lookup failure")
	ErrKindMismatch      = errors.New("kind mismatch")
	ErrArithmeticType    = errors.New("arithmetic type error")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrBranchOutOfBounds = errors.New("branch out of bounds")
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrStackOverflow     = errors.New("stack overflow")

	// ErrInvalidOpcode is a construction error: the opcode does not fit
	// the instruction shape it was given to.
	ErrInvalidOpcode = errors.New("invalid opcode")

	// ErrHalted is returned by Run on an engine that has already run.
	ErrHalted = errors.New("vm already halted")
)

// Fault binds a step error to the instruction that raised it.
type Fault struct {
	Index int
	Inst  Instruction
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s -> %d %s (%s)", f.Err, f.Index, f.Inst, f.Inst.Source())
}

func (f *Fault) Unwrap() error {
	return f.Err
}
