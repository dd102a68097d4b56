package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/krehermann/ztvm/vm"
)

// sum of 1..n, counting down from n
func sumProgram(t *testing.T, n int64) *Program {
	p, err := NewBuilder("sum.zt").
		Const("n", vm.Int(n)).
		Const("one", vm.Int(1)).
		Const("zero", vm.Int(0)).
		LoadW(vm.Const("zero")).
		LoadWV(vm.Var("total")).
		LoadW(vm.Const("n")).
		LoadWV(vm.Var("i")).
		Label("loop").
		CondBr(vm.OpBeq, "done", vm.Const("zero")).
		ArithAt(vm.OpAddI, vm.Var("total")).
		LoadWV(vm.Var("total")).
		LoadW(vm.Var("i")).
		Load(vm.Int(1)).
		Arith(vm.OpSub).
		LoadWV(vm.Var("i")).
		Br("loop").
		Label("done").
		LoadW(vm.Var("total")).
		Build()
	require.NoError(t, err)
	return p
}

func TestBuilder_Loop(t *testing.T) {
	p := sumProgram(t, 10)

	s, err := p.Run(vm.LoggerOpt(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, vm.Int(55), s.Accumulator())
	assert.Equal(t, vm.Int(55), s.Vars["total"])
	assert.Equal(t, vm.Int(0), s.Vars["i"])
	assert.Equal(t, vm.StatusHalted, s.Status)
}

func TestProgram_RunsRepeatedly(t *testing.T) {
	p := sumProgram(t, 4)

	for i := 0; i < 3; i++ {
		s, err := p.Run()
		require.NoError(t, err)
		assert.Equal(t, vm.Int(10), s.Accumulator())
	}
}

func TestBuilder_LabelsResolveToIndexes(t *testing.T) {
	p := sumProgram(t, 1)

	br, ok := p.Code[11].(vm.Branch)
	require.True(t, ok)
	assert.Equal(t, 4, br.Target())
	assert.Equal(t, "Br 4", br.String())

	beq, ok := p.Code[4].(vm.CondBranch)
	require.True(t, ok)
	assert.Equal(t, 12, beq.Target())
	assert.Equal(t, "Beq 12 zero", beq.String())
}

func TestBuilder_Sources(t *testing.T) {
	p, err := NewBuilder("src.zt").
		Load(vm.Int(1)).
		Load(vm.Int(2)).
		At(40).
		Arith(vm.OpAdd).
		Load(vm.Int(0)).
		Build()
	require.NoError(t, err)

	want := []vm.Source{
		vm.NewSource("src.zt", 1),
		vm.NewSource("src.zt", 2),
		vm.NewSource("src.zt", 40),
		vm.NewSource("src.zt", 41),
	}
	require.Len(t, p.Code, len(want))
	for i, inst := range p.Code {
		assert.Equal(t, want[i], inst.Source())
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(*Builder) *Builder
		wantErr error
	}{
		{
			name:    "unknown label",
			build:   func(b *Builder) *Builder { return b.Load(vm.Int(1)).Br("nowhere") },
			wantErr: ErrUnknownLabel,
		},
		{
			name: "unknown cond label",
			build: func(b *Builder) *Builder {
				return b.Load(vm.Int(1)).CondBr(vm.OpBlt, "nowhere", vm.Const("k"))
			},
			wantErr: ErrUnknownLabel,
		},
		{
			name:    "duplicate label",
			build:   func(b *Builder) *Builder { return b.Label("a").Load(vm.Int(1)).Label("a") },
			wantErr: ErrDuplicateLabel,
		},
		{
			name:    "duplicate const",
			build:   func(b *Builder) *Builder { return b.Const("k", vm.Int(1)).Const("k", vm.Int(2)) },
			wantErr: ErrDuplicateConst,
		},
		{
			name:    "stack arith with location opcode",
			build:   func(b *Builder) *Builder { return b.Arith(vm.OpAddI) },
			wantErr: vm.ErrInvalidOpcode,
		},
		{
			name:    "location arith with stack opcode",
			build:   func(b *Builder) *Builder { return b.ArithAt(vm.OpDiv, vm.Var("x")) },
			wantErr: vm.ErrInvalidOpcode,
		},
		{
			name:    "cond branch with plain branch opcode",
			build:   func(b *Builder) *Builder { return b.Label("top").CondBr(vm.OpBr, "top", vm.Var("x")) },
			wantErr: vm.ErrInvalidOpcode,
		},
		{
			name: "first error wins",
			build: func(b *Builder) *Builder {
				return b.Const("k", vm.Int(1)).Const("k", vm.Int(1)).Label("a").Label("a")
			},
			wantErr: ErrDuplicateConst,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build(NewBuilder("bad.zt")).Build()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, p)
		})
	}
}

func TestBuilder_EndLabelFaultsAtRun(t *testing.T) {
	p, err := NewBuilder("end.zt").
		Load(vm.Int(1)).
		Br("end").
		Load(vm.Int(2)).
		Label("end").
		Build()
	require.NoError(t, err)

	_, err = p.Run()
	assert.ErrorIs(t, err, vm.ErrBranchOutOfBounds)
	assert.EqualError(t, err, "branch out of bounds: target 3, code length 3 -> 1 Br 3 (end.zt:2)")
}

func TestProgram_Disassemble(t *testing.T) {
	p, err := NewBuilder("dis.zt").
		Const("const2", vm.Double(50)).
		Const("const1", vm.Double(0)).
		LoadW(vm.Const("const2")).
		LoadWV(vm.Var("var1")).
		LoadW(vm.Const("const1")).
		ArithAt(vm.OpDivD, vm.Var("var1")).
		Build()
	require.NoError(t, err)

	want := "const const1 = 0.0\n" +
		"const const2 = 50.0\n" +
		"0: LoadW const2 (dis.zt:1)\n" +
		"1: LoadWV var1 (dis.zt:2)\n" +
		"2: LoadW const1 (dis.zt:3)\n" +
		"3: DivD var1 (dis.zt:4)\n"
	assert.Equal(t, want, p.Disassemble())

	s, err := p.Run()
	assert.ErrorIs(t, err, vm.ErrDivisionByZero)
	assert.Contains(t, err.Error(), "-> 3 DivD var1 (dis.zt:4)")
	assert.Equal(t, vm.StatusFailed, s.Status)

	// rendering does not depend on what the run saw
	assert.Equal(t, want, p.Disassemble())
}

func TestProgram_BuildIsSnapshot(t *testing.T) {
	b := NewBuilder("snap.zt").Const("k", vm.Int(1)).LoadW(vm.Const("k"))
	p, err := b.Build()
	require.NoError(t, err)

	b.Const("k2", vm.Int(2)).Load(vm.Int(3))
	assert.Len(t, p.Code, 1)
	assert.Len(t, p.Consts, 1)
}
