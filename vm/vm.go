package vm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/krehermann/ztvm/types"
	"go.uber.org/zap"
)

type Status byte

const (
	StatusReady Status = iota
	StatusRunning
	StatusHalted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", byte(s))
}

// VM executes one flat instruction sequence to completion or to its first
// fault. It is single use: once Run returns, a new VM is needed to run the
// code again.
type VM struct {
	// held for the whole of Run, and by Dump
	lock sync.Mutex

	code *types.List[Instruction]
	// instruction pointer
	ip     int
	status Status

	stack     *Stack
	stackOpts []StackOpt
	state     *State
	disabled  map[Opcode]bool
	logger    *zap.Logger
}

type VMOpt func(*VM) *VM

func LoggerOpt(l *zap.Logger) VMOpt {
	return func(vm *VM) *VM {
		if l != nil {
			vm.logger = l
		}
		return vm
	}
}

func StackOpts(opts ...StackOpt) VMOpt {
	return func(vm *VM) *VM {
		vm.stackOpts = append(vm.stackOpts, opts...)
		return vm
	}
}

// DisableOpcodes narrows the instruction set; executing any of ops faults
// with ErrUnsupportedOpcode.
func DisableOpcodes(ops ...Opcode) VMOpt {
	return func(vm *VM) *VM {
		for _, op := range ops {
			vm.disabled[op] = true
		}
		return vm
	}
}

// NewVM loads the constant table and code. Both are copied, so later
// changes by the caller are not seen by the VM.
func NewVM(consts map[string]Value, code []Instruction, opts ...VMOpt) *VM {
	vm := &VM{
		code:     types.NewList(code...),
		ip:       0,
		state:    NewState(consts),
		disabled: make(map[Opcode]bool),
		logger:   zap.L(),
	}

	for _, opt := range opts {
		vm = opt(vm)
	}

	vm.stack = NewStack(vm.stackOpts...)
	vm.logger = vm.logger.Named("vm")

	return vm
}

// Run executes the code from the first instruction. It returns nil when
// the last instruction completes, or a *Fault for the first instruction
// that fails. Calling Run a second time returns ErrHalted.
func (vm *VM) Run() error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.status != StatusReady {
		return fmt.Errorf("vm run: %w (%s)", ErrHalted, vm.status)
	}
	vm.status = StatusRunning

	for vm.code.InRange(vm.ip) {
		inst := vm.code.At(vm.ip)
		vm.logger.Debug("step",
			zap.Int("ip", vm.ip),
			zap.Stringer("inst", inst),
			zap.Object("src", inst.Source()),
		)

		next, err := vm.exec(inst)
		if err != nil {
			vm.status = StatusFailed
			return &Fault{Index: vm.ip, Inst: inst, Err: err}
		}
		vm.ip = next
	}

	vm.status = StatusHalted
	return nil
}

// exec runs a single instruction and returns the index of the one to run
// after it.
func (vm *VM) exec(inst Instruction) (int, error) {
	next := vm.ip + 1
	if vm.disabled[inst.Op()] {
		return next, fmt.Errorf("%w: %s is disabled", ErrUnsupportedOpcode, inst.Op())
	}

	switch inst := inst.(type) {
	case LoadInst:
		return next, vm.stack.Push(inst.val)
	case StackArith:
		return next, vm.stackArith(inst.Op())
	case LoadWInst:
		return next, vm.load(inst.loc)
	case StoreInst:
		return next, vm.store(inst.loc)
	case LocArith:
		return next, vm.locArith(inst.Op(), inst.loc)
	case Branch:
		return vm.jump(inst.target)
	case CondBranch:
		return vm.condJump(inst)
	}

	return next, fmt.Errorf("%w: %s", ErrUnsupportedOpcode, inst.Op())
}

func (vm *VM) stackArith(op Opcode) error {
	rhs, err := vm.stack.Pop()
	if err != nil {
		return fmt.Errorf("%w (rhs)", err)
	}
	lhs, err := vm.stack.Pop()
	if err != nil {
		return fmt.Errorf("%w (lhs)", err)
	}

	val, err := op.operator()(lhs, rhs)
	if err != nil {
		return annotate(err, "lhs", lhs, "rhs", rhs)
	}
	vm.logger.Debug(op.String(),
		zap.Object("lhs", lhs),
		zap.Object("rhs", rhs),
		zap.Object("result", val),
	)

	return vm.stack.Push(val)
}

// load copies loc into the accumulator. It only grows the stack when
// there is no accumulator yet.
func (vm *VM) load(loc Location) error {
	val, err := vm.state.Resolve(loc)
	if err != nil {
		return err
	}
	if vm.stack.Empty() {
		return vm.stack.Push(val)
	}
	return vm.stack.Replace(val)
}

func (vm *VM) store(loc Location) error {
	acc, err := vm.stack.Peek()
	if err != nil {
		return fmt.Errorf("%w (accumulator)", err)
	}
	return vm.state.Store(loc, acc)
}

// locArith computes loc op accumulator and leaves the result in the
// accumulator.
func (vm *VM) locArith(op Opcode, loc Location) error {
	operand, err := vm.state.Resolve(loc)
	if err != nil {
		return err
	}
	if want := op.DeclaredKind(); operand.Kind() != want {
		return fmt.Errorf("%w: %s wants %s operand, '%s' holds %s",
			ErrKindMismatch, op, want, loc.Name, operand.Kind())
	}
	acc, err := vm.stack.Peek()
	if err != nil {
		return fmt.Errorf("%w (accumulator)", err)
	}

	val, err := op.operator()(operand, acc)
	if err != nil {
		return annotate(err, "operand "+loc.Name, operand, "accumulator", acc)
	}
	vm.logger.Debug(op.String(),
		zap.Object("operand", operand),
		zap.Object("accumulator", acc),
		zap.Object("result", val),
	)

	return vm.stack.Replace(val)
}

func (vm *VM) jump(target int) (int, error) {
	if !vm.code.InRange(target) {
		return vm.ip, fmt.Errorf("%w: target %d, code length %d",
			ErrBranchOutOfBounds, target, vm.code.Len())
	}
	return target, nil
}

func (vm *VM) condJump(inst CondBranch) (int, error) {
	next := vm.ip + 1
	if _, err := vm.jump(inst.target); err != nil {
		return next, err
	}

	acc, err := vm.stack.Peek()
	if err != nil {
		return next, fmt.Errorf("%w (accumulator)", err)
	}
	operand, err := vm.state.Resolve(inst.loc)
	if err != nil {
		return next, err
	}

	taken, err := inst.Op().predicate()(acc, operand)
	if err != nil {
		return next, annotate(err, "accumulator", acc, "operand "+inst.loc.Name, operand)
	}
	vm.logger.Debug(inst.Op().String(),
		zap.Bool("taken", taken),
		zap.Int("target", inst.target),
	)
	if !taken {
		return next, nil
	}
	return inst.target, nil
}

// annotate names the side of a binary operation that caused err.
func annotate(err error, lhsRole string, lhs Value, rhsRole string, rhs Value) error {
	switch {
	case errors.Is(err, ErrDivisionByZero):
		return fmt.Errorf("%w (%s)", err, rhsRole)
	case errors.Is(err, ErrArithmeticType):
		if !lhs.isNumeric() {
			return fmt.Errorf("%w (%s)", err, lhsRole)
		}
		return fmt.Errorf("%w (%s)", err, rhsRole)
	}
	return err
}

// Snapshot is a copy of a VM's mutable state.
type Snapshot struct {
	Stack  []Value
	Vars   map[string]Value
	PC     int
	Status Status
}

// Accumulator is the top of the stack, or Null when the stack is empty.
func (s Snapshot) Accumulator() Value {
	if len(s.Stack) == 0 {
		return Null()
	}
	return s.Stack[len(s.Stack)-1]
}

// Dump copies the current state. It waits for a Run in progress to finish.
func (vm *VM) Dump() Snapshot {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	return Snapshot{
		Stack:  vm.stack.Values(),
		Vars:   vm.state.Vars(),
		PC:     vm.ip,
		Status: vm.status,
	}
}
