package program

import (
	"fmt"
	"sort"
	"strings"

	"github.com/krehermann/ztvm/vm"
)

// Program is a constant table together with the code that reads it.
type Program struct {
	Consts map[string]vm.Value
	Code   []vm.Instruction
}

// NewVM returns a fresh VM loaded with p. A VM runs once; a Program can
// produce as many as needed.
func (p *Program) NewVM(opts ...vm.VMOpt) *vm.VM {
	return vm.NewVM(p.Consts, p.Code, opts...)
}

// Run executes p on a fresh VM and returns its final state alongside the
// run error, if any.
func (p *Program) Run(opts ...vm.VMOpt) (vm.Snapshot, error) {
	m := p.NewVM(opts...)
	err := m.Run()
	return m.Dump(), err
}

// Disassemble lists the constants in name order, then one line per
// instruction with its index and source.
func (p *Program) Disassemble() string {
	names := make([]string, 0, len(p.Consts))
	for name := range p.Consts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "const %s = %s\n", name, p.Consts[name].Repr())
	}
	for i, inst := range p.Code {
		fmt.Fprintf(&sb, "%d: %s (%s)\n", i, inst, inst.Source())
	}
	return sb.String()
}
