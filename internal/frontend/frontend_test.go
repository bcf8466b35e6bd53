package frontend

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysyc/internal/lexer"
	"sysyc/internal/parser"
)

func lowerSource(t *testing.T, src string) *ir.Module {
	t.Helper()
	scanner := lexer.NewScanner(src, "test.sy")
	tokens := scanner.ScanTokens()
	p := parser.New(tokens, "test.sy")
	prog := p.Parse()
	mod, _, err := Lower(prog, "test.sy")
	require.NoError(t, err)
	return mod
}

func findFunc(t *testing.T, mod *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func lastBlock(f *ir.Func) *ir.Block { return f.Blocks[len(f.Blocks)-1] }

func countInsts(f *ir.Func, match func(ir.Instruction) bool) int {
	n := 0
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if match(inst) {
				n++
			}
		}
	}
	return n
}

func TestConstantFoldingInReturn(t *testing.T) {
	mod := lowerSource(t, "int main() { return 1 + 2 * 3; }")
	f := findFunc(t, mod, "main")

	// The user's return lives in the entry block; the jump pad opened
	// after it holds the guaranteed trailing `ret 0`.
	term, ok := f.Blocks[0].Term.(*ir.TermRet)
	require.True(t, ok, "expected a ret terminator")
	imm, ok := term.X.(*constant.Int)
	require.True(t, ok, "expected a folded constant return value")
	assert.Equal(t, int64(7), imm.X.Int64())

	// Folding must leave no arithmetic instructions behind.
	assert.Equal(t, 0, countInsts(f, func(inst ir.Instruction) bool {
		_, isAdd := inst.(*ir.InstAdd)
		_, isMul := inst.(*ir.InstMul)
		return isAdd || isMul
	}))
}

func TestShortCircuitAndDoesNotEvaluateRHSWhenLHSIsFalse(t *testing.T) {
	mod := lowerSource(t, "int main() { return 0 && (1 / 0); }")
	f := findFunc(t, mod, "main")

	assert.Equal(t, 0, countInsts(f, func(inst ir.Instruction) bool {
		_, ok := inst.(*ir.InstSDiv)
		return ok
	}), "constant-false LHS must short-circuit away the division")
}

func TestShortCircuitOrDoesNotEvaluateRHSWhenLHSIsTrue(t *testing.T) {
	mod := lowerSource(t, "int main() { return 1 || (1 / 0); }")
	f := findFunc(t, mod, "main")

	assert.Equal(t, 0, countInsts(f, func(inst ir.Instruction) bool {
		_, ok := inst.(*ir.InstSDiv)
		return ok
	}), "constant-true LHS must short-circuit away the division")
}

func TestShortCircuitWithRegisterLHSBranches(t *testing.T) {
	mod := lowerSource(t, "int f(int x) { return x && 1; }")
	f := findFunc(t, mod, "f")

	hasCondBr := false
	for _, b := range f.Blocks {
		if _, ok := b.Term.(*ir.TermCondBr); ok {
			hasCondBr = true
		}
	}
	assert.True(t, hasCondBr, "a non-constant LHS must branch, not fold")
}

func TestWhileWithBreakLowersWithoutError(t *testing.T) {
	mod := lowerSource(t, `
		int main() {
			int i;
			i = 0;
			while (i < 10) {
				i = i + 1;
				if (i == 5) break;
			}
			return i;
		}
	`)
	f := findFunc(t, mod, "main")

	condBrs := countInsts(f, func(ir.Instruction) bool { return false })
	_ = condBrs
	_, ok := lastBlock(f).Term.(*ir.TermRet)
	assert.True(t, ok, "function must end in a return")

	sawLoopCondition := false
	for _, b := range f.Blocks {
		if _, ok := b.Term.(*ir.TermCondBr); ok {
			sawLoopCondition = true
		}
	}
	assert.True(t, sawLoopCondition, "while must lower to at least one conditional branch")
}

func TestArrayInitializerStoresEveryElement(t *testing.T) {
	mod := lowerSource(t, `
		int main() {
			int a[2][3] = {{1, 2, 3}, {4, 5, 6}};
			return a[1][2];
		}
	`)
	f := findFunc(t, mod, "main")

	stores := countInsts(f, func(inst ir.Instruction) bool {
		_, ok := inst.(*ir.InstStore)
		return ok
	})
	assert.GreaterOrEqual(t, stores, 6, "every element of a fully-specified initializer must be stored")
}

func TestArrayParameterDecaysToPointer(t *testing.T) {
	mod := lowerSource(t, "int get(int a[], int n) { return a[0] + n; }")
	f := findFunc(t, mod, "get")

	require.Len(t, f.Params, 2)
	_, isPointer := f.Params[0].Type().(*types.PointerType)
	assert.True(t, isPointer, "an array parameter must decay to a pointer type")

	_, isInt := f.Params[1].Type().(*types.IntType)
	assert.True(t, isInt, "a scalar parameter stays an int")
}

func TestVoidFunctionImplicitReturn(t *testing.T) {
	mod := lowerSource(t, "void noop() { }")
	f := findFunc(t, mod, "noop")

	term, ok := lastBlock(f).Term.(*ir.TermRet)
	require.True(t, ok, "a void function falling off the end must get an implicit ret")
	assert.Nil(t, term.X)
}
