package frontend

import (
	"github.com/llir/llvm/ir/types"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/session"
)

// evalConstExpr folds an AST expr known to be a compile-time constant
// (array dimensions, const initializers) using the same constant
// folding rule lower() uses for IMM results — dimensions must fold,
// per spec.md §4.4.5 ("declared dimensions are constant expressions,
// folded to ints").
func (l *Lowering) evalConstExpr(e ast.Expr) int {
	r := l.lowerExpr(e)
	if r.Kind != session.IMM {
		panic(diag.New(diag.InitializerShape, l.pos(e), "expected a compile-time constant expression"))
	}
	return r.Value
}

// dimsOf folds each declared dimension expression to an int, outermost
// first, matching the AST's declaration order.
func (l *Lowering) dimsOf(dims []ast.Expr) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = l.evalConstExpr(d)
	}
	return out
}

// buildArrayType constructs the nested array type for shape dims
// (outermost dimension first), per spec.md §4.4.5's outside-in nested
// [T,d] serialisation: the innermost dimension is the deepest bracket,
// so the type tree is built from the innermost dimension outward.
func buildArrayType(dims []int, elem types.Type) types.Type {
	t := elem
	for i := len(dims) - 1; i >= 0; i-- {
		t = types.NewArray(uint64(dims[i]), t)
	}
	return t
}

// productOf returns the total scalar element count of a shape.
func productOf(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}
