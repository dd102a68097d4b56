package program

import (
	"errors"
	"fmt"

	"github.com/krehermann/ztvm/types"
	"github.com/krehermann/ztvm/vm"
)

var (
	ErrUnknownLabel   = errors.New("unknown label")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrDuplicateConst = errors.New("duplicate const")
)

// emitter produces an instruction once every label is known.
type emitter func(labels map[string]int) (vm.Instruction, error)

// Builder assembles a Program. Branches name labels instead of indexes;
// labels may be used before they are placed. Each instruction is tagged
// with the builder's file and the current line, which advances by one per
// instruction unless set with At.
//
// The first error is kept and returned by Build; later calls are no-ops.
type Builder struct {
	file   string
	line   uint32
	consts map[string]vm.Value
	code   *types.List[emitter]
	labels map[string]int
	err    error
}

func NewBuilder(file string) *Builder {
	return &Builder{
		file:   file,
		line:   1,
		consts: make(map[string]vm.Value),
		code:   types.NewList[emitter](),
		labels: make(map[string]int),
	}
}

// At sets the source line of the next instruction.
func (b *Builder) At(line uint32) *Builder {
	b.line = line
	return b
}

func (b *Builder) Const(name string, v vm.Value) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.consts[name]; exists {
		return b.fail(fmt.Errorf("%w: '%s'", ErrDuplicateConst, name))
	}
	b.consts[name] = v
	return b
}

// Label names the index of the next instruction.
func (b *Builder) Label(name string) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.labels[name]; exists {
		return b.fail(fmt.Errorf("%w: '%s'", ErrDuplicateLabel, name))
	}
	b.labels[name] = b.code.Len()
	return b
}

func (b *Builder) Load(v vm.Value) *Builder {
	return b.add(vm.Load(v, b.source()))
}

// Arith emits one of the stack opcodes Add, Sub, Mul or Div.
func (b *Builder) Arith(op vm.Opcode) *Builder {
	inst, err := vm.Arith(op, b.source())
	if err != nil {
		return b.fail(err)
	}
	return b.add(inst)
}

func (b *Builder) LoadW(loc vm.Location) *Builder {
	return b.add(vm.LoadW(loc, b.source()))
}

func (b *Builder) LoadWV(loc vm.Location) *Builder {
	return b.add(vm.LoadWV(loc, b.source()))
}

// ArithAt emits one of AddI..DivD against loc.
func (b *Builder) ArithAt(op vm.Opcode, loc vm.Location) *Builder {
	inst, err := vm.ArithAt(op, loc, b.source())
	if err != nil {
		return b.fail(err)
	}
	return b.add(inst)
}

func (b *Builder) Br(label string) *Builder {
	src := b.source()
	return b.emit(func(labels map[string]int) (vm.Instruction, error) {
		target, err := resolve(labels, label, src)
		if err != nil {
			return nil, err
		}
		return vm.Br(target, src), nil
	})
}

// CondBr emits a conditional branch comparing the accumulator with loc.
func (b *Builder) CondBr(op vm.Opcode, label string, loc vm.Location) *Builder {
	src := b.source()
	if _, err := vm.CondBr(op, 0, loc, src); err != nil {
		return b.fail(err)
	}
	return b.emit(func(labels map[string]int) (vm.Instruction, error) {
		target, err := resolve(labels, label, src)
		if err != nil {
			return nil, err
		}
		inst, err := vm.CondBr(op, target, loc, src)
		if err != nil {
			return nil, err
		}
		return inst, nil
	})
}

// Build resolves labels and returns the Program. The builder can keep
// being used afterwards; the returned Program does not change.
func (b *Builder) Build() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}

	code := make([]vm.Instruction, 0, b.code.Len())
	for i := 0; i < b.code.Len(); i++ {
		emit, err := b.code.Get(i)
		if err != nil {
			return nil, err
		}
		inst, err := emit(b.labels)
		if err != nil {
			return nil, err
		}
		code = append(code, inst)
	}

	consts := make(map[string]vm.Value, len(b.consts))
	for k, v := range b.consts {
		consts[k] = v
	}

	return &Program{Consts: consts, Code: code}, nil
}

func (b *Builder) source() vm.Source {
	src := vm.NewSource(b.file, b.line)
	b.line++
	return src
}

func (b *Builder) add(inst vm.Instruction) *Builder {
	return b.emit(func(map[string]int) (vm.Instruction, error) {
		return inst, nil
	})
}

func (b *Builder) emit(e emitter) *Builder {
	if b.err != nil {
		return b
	}
	b.code.Append(e)
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func resolve(labels map[string]int, label string, src vm.Source) (int, error) {
	target, ok := labels[label]
	if !ok {
		return 0, fmt.Errorf("%w: '%s' at %s", ErrUnknownLabel, label, src)
	}
	return target, nil
}
