package vm

import (
	"fmt"
)

type Opcode byte

const (
	OpNop  Opcode = 0x00
	OpLoad Opcode = 0x0a //10
	OpAdd  Opcode = 0x0b
	OpSub  Opcode = 0x0c
	OpMul  Opcode = 0x0d
	OpDiv  Opcode = 0x0e

	OpLoadW  Opcode = 0x10
	OpLoadWV Opcode = 0x11

	OpAddI  Opcode = 0x20
	OpSubI  Opcode = 0x21
	OpMultI Opcode = 0x22
	OpDivI  Opcode = 0x23
	OpAddD  Opcode = 0x24
	OpSubD  Opcode = 0x25
	OpMultD Opcode = 0x26
	OpDivD  Opcode = 0x27

	OpBr  Opcode = 0x30
	OpBeq Opcode = 0x31
	OpBnq Opcode = 0x32
	OpBg  Opcode = 0x33
	OpBge Opcode = 0x34
	OpBlt Opcode = 0x35
	OpBle Opcode = 0x36

	// reserved, no engine executes it
	OpHalt Opcode = 0xff
)

var opNames = map[Opcode]string{
	OpNop:    "Nop",
	OpLoad:   "Load",
	OpAdd:    "Add",
	OpSub:    "Sub",
	OpMul:    "Mul",
	OpDiv:    "Div",
	OpLoadW:  "LoadW",
	OpLoadWV: "LoadWV",
	OpAddI:   "AddI",
	OpSubI:   "SubI",
	OpMultI:  "MultI",
	OpDivI:   "DivI",
	OpAddD:   "AddD",
	OpSubD:   "SubD",
	OpMultD:  "MultD",
	OpDivD:   "DivD",
	OpBr:     "Br",
	OpBeq:    "Beq",
	OpBnq:    "Bnq",
	OpBg:     "Bg",
	OpBge:    "Bge",
	OpBlt:    "Blt",
	OpBle:    "Ble",
	OpHalt:   "Halt",
}

func (op Opcode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(0x%02x)", byte(op))
}

// DeclaredKind is the operand kind a location arithmetic opcode requires,
// or KindNull for every other opcode.
func (op Opcode) DeclaredKind() Kind {
	switch op {
	case OpAddI, OpSubI, OpMultI, OpDivI:
		return KindInt
	case OpAddD, OpSubD, OpMultD, OpDivD:
		return KindDouble
	}
	return KindNull
}

func (op Opcode) isStackArith() bool {
	return op >= OpAdd && op <= OpDiv
}

func (op Opcode) isLocArith() bool {
	return op >= OpAddI && op <= OpDivD
}

func (op Opcode) isCondBranch() bool {
	return op >= OpBeq && op <= OpBle
}

// operator maps an arithmetic opcode onto the Value operator it applies.
func (op Opcode) operator() func(Value, Value) (Value, error) {
	switch op {
	case OpAdd, OpAddI, OpAddD:
		return Value.Add
	case OpSub, OpSubI, OpSubD:
		return Value.Sub
	case OpMul, OpMultI, OpMultD:
		return Value.Mul
	case OpDiv, OpDivI, OpDivD:
		return Value.Div
	}
	return nil
}

func (op Opcode) predicate() func(Value, Value) (bool, error) {
	switch op {
	case OpBeq:
		return func(a, b Value) (bool, error) { return a.Equal(b), nil }
	case OpBnq:
		return func(a, b Value) (bool, error) { return !a.Equal(b), nil }
	case OpBg:
		return Value.GreaterThan
	case OpBge:
		return Value.GreaterEq
	case OpBlt:
		return Value.LessThan
	case OpBle:
		return Value.LessEq
	}
	return nil
}

// Instruction is one decoded step. The set of implementations is closed;
// each carries only the operands its opcode needs, plus a rendering that
// is fixed at construction.
type Instruction interface {
	Op() Opcode
	Source() Source
	String() string

	instruction()
}

type header struct {
	op   Opcode
	text string
	src  Source
}

func (h header) Op() Opcode     { return h.op }
func (h header) Source() Source { return h.src }
func (h header) String() string { return h.text }
func (header) instruction()     {}

func newHeader(op Opcode, src Source, operands ...any) header {
	text := op.String()
	for _, o := range operands {
		text += fmt.Sprintf(" %v", o)
	}
	return header{op: op, text: text, src: src}
}

// LoadInst pushes an immediate value.
type LoadInst struct {
	header
	val Value
}

func (i LoadInst) Value() Value { return i.val }

func Load(v Value, src Source) LoadInst {
	return LoadInst{header: newHeader(OpLoad, src, v.Repr()), val: v}
}

// StackArith pops rhs then lhs and pushes lhs op rhs.
type StackArith struct {
	header
}

func Arith(op Opcode, src Source) (StackArith, error) {
	if !op.isStackArith() {
		return StackArith{}, fmt.Errorf("%w: %s takes no operands", ErrInvalidOpcode, op)
	}
	return StackArith{header: newHeader(op, src)}, nil
}

func Add(src Source) StackArith { return StackArith{header: newHeader(OpAdd, src)} }
func Sub(src Source) StackArith { return StackArith{header: newHeader(OpSub, src)} }
func Mul(src Source) StackArith { return StackArith{header: newHeader(OpMul, src)} }
func Div(src Source) StackArith { return StackArith{header: newHeader(OpDiv, src)} }

// LoadWInst copies the value stored at a location into the accumulator.
type LoadWInst struct {
	header
	loc Location
}

func (i LoadWInst) Loc() Location { return i.loc }

func LoadW(loc Location, src Source) LoadWInst {
	return LoadWInst{header: newHeader(OpLoadW, src, loc), loc: loc}
}

// StoreInst copies the accumulator into a variable. A constant destination
// is accepted here and rejected when executed.
type StoreInst struct {
	header
	loc Location
}

func (i StoreInst) Loc() Location { return i.loc }

func LoadWV(loc Location, src Source) StoreInst {
	return StoreInst{header: newHeader(OpLoadWV, src, loc), loc: loc}
}

// LocArith replaces the accumulator with loc op accumulator. The value at
// loc must be of the opcode's declared kind.
type LocArith struct {
	header
	loc Location
}

func (i LocArith) Loc() Location { return i.loc }

func ArithAt(op Opcode, loc Location, src Source) (LocArith, error) {
	if !op.isLocArith() {
		return LocArith{}, fmt.Errorf("%w: %s does not take a location", ErrInvalidOpcode, op)
	}
	return LocArith{header: newHeader(op, src, loc), loc: loc}, nil
}

func locArith(op Opcode, loc Location, src Source) LocArith {
	return LocArith{header: newHeader(op, src, loc), loc: loc}
}

func AddI(loc Location, src Source) LocArith  { return locArith(OpAddI, loc, src) }
func SubI(loc Location, src Source) LocArith  { return locArith(OpSubI, loc, src) }
func MultI(loc Location, src Source) LocArith { return locArith(OpMultI, loc, src) }
func DivI(loc Location, src Source) LocArith  { return locArith(OpDivI, loc, src) }
func AddD(loc Location, src Source) LocArith  { return locArith(OpAddD, loc, src) }
func SubD(loc Location, src Source) LocArith  { return locArith(OpSubD, loc, src) }
func MultD(loc Location, src Source) LocArith { return locArith(OpMultD, loc, src) }
func DivD(loc Location, src Source) LocArith  { return locArith(OpDivD, loc, src) }

// Branch jumps to an absolute instruction index.
type Branch struct {
	header
	target int
}

func (i Branch) Target() int { return i.target }

func Br(target int, src Source) Branch {
	return Branch{header: newHeader(OpBr, src, target), target: target}
}

// CondBranch jumps to target when the predicate holds for
// (accumulator, value at loc). Nothing is popped either way.
type CondBranch struct {
	header
	target int
	loc    Location
}

func (i CondBranch) Target() int   { return i.target }
func (i CondBranch) Loc() Location { return i.loc }

func CondBr(op Opcode, target int, loc Location, src Source) (CondBranch, error) {
	if !op.isCondBranch() {
		return CondBranch{}, fmt.Errorf("%w: %s is not a conditional branch", ErrInvalidOpcode, op)
	}
	return condBr(op, target, loc, src), nil
}

func condBr(op Opcode, target int, loc Location, src Source) CondBranch {
	return CondBranch{header: newHeader(op, src, target, loc), target: target, loc: loc}
}

func Beq(target int, loc Location, src Source) CondBranch { return condBr(OpBeq, target, loc, src) }
func Bnq(target int, loc Location, src Source) CondBranch { return condBr(OpBnq, target, loc, src) }
func Bg(target int, loc Location, src Source) CondBranch  { return condBr(OpBg, target, loc, src) }
func Bge(target int, loc Location, src Source) CondBranch { return condBr(OpBge, target, loc, src) }
func Blt(target int, loc Location, src Source) CondBranch { return condBr(OpBlt, target, loc, src) }
func Ble(target int, loc Location, src Source) CondBranch { return condBr(OpBle, target, loc, src) }

// Reserved holds opcodes that exist in the encoding but that no engine
// executes.
type Reserved struct {
	header
}

func Nop(src Source) Reserved  { return Reserved{header: newHeader(OpNop, src)} }
func Halt(src Source) Reserved { return Reserved{header: newHeader(OpHalt, src)} }
