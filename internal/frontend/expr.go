package frontend

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/session"
)

// toValue materialises a Result as a graph operand: an IMM becomes an
// inline constant, a REG is already a value.
func toValue(r session.Result) value.Value {
	if r.Kind == session.IMM {
		return constant.NewInt(types.I32, int64(r.Value))
	}
	return r.IR
}

func (l *Lowering) lowerExpr(e ast.Expr) session.Result {
	switch n := e.(type) {
	case *ast.Number:
		return session.Imm(n.Val)
	case *ast.LValExpr:
		return l.readLVal(n.LVal)
	case *ast.Call:
		return l.lowerCall(n)
	case *ast.Unary:
		return l.lowerUnary(n)
	case *ast.Binary:
		return l.lowerBinary(n)
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(e), "unknown expression node %T", e))
	}
}

func (l *Lowering) lowerUnary(n *ast.Unary) session.Result {
	x := l.lowerExpr(n.X)
	switch n.Op {
	case ast.UnaryPos:
		return x
	case ast.UnaryNeg:
		if x.Kind == session.IMM {
			return session.Imm(-x.Value)
		}
		zero := constant.NewInt(types.I32, 0)
		inst := l.sess.CurBlock.NewSub(zero, toValue(x))
		return session.Reg(inst)
	case ast.UnaryNot:
		if x.Kind == session.IMM {
			if x.Value == 0 {
				return session.Imm(1)
			}
			return session.Imm(0)
		}
		return session.Reg(l.normalizeBool(toValue(x), enum.IPredEQ))
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(n), "unknown unary operator"))
	}
}

// normalizeBool compares v against zero with pred and zero-extends the
// i1 result back to i32 — Koopa-IR (and this compiler's model of it)
// has no i1 type, every value including booleans is i32 (spec.md
// §4.4.2's "normalisation to {0,1} is mandatory").
func (l *Lowering) normalizeBool(v value.Value, pred enum.IPred) value.Value {
	cmp := l.sess.CurBlock.NewICmp(pred, v, constant.NewInt(types.I32, 0))
	return l.sess.CurBlock.NewZExt(cmp, types.I32)
}

func (l *Lowering) lowerBinary(n *ast.Binary) session.Result {
	if n.Op == ast.OpLAnd || n.Op == ast.OpLOr {
		return l.lowerLogical(n)
	}
	lx := l.lowerExpr(n.L)
	ly := l.lowerExpr(n.R)
	if lx.Kind == session.IMM && ly.Kind == session.IMM {
		if v, ok := foldBinary(n.Op, lx.Value, ly.Value); ok {
			return session.Imm(v)
		}
	}
	xv, yv := toValue(lx), toValue(ly)
	block := l.sess.CurBlock
	switch n.Op {
	case ast.OpAdd:
		return session.Reg(block.NewAdd(xv, yv))
	case ast.OpSub:
		return session.Reg(block.NewSub(xv, yv))
	case ast.OpMul:
		return session.Reg(block.NewMul(xv, yv))
	case ast.OpDiv:
		return session.Reg(block.NewSDiv(xv, yv))
	case ast.OpMod:
		return session.Reg(block.NewSRem(xv, yv))
	case ast.OpEq:
		return session.Reg(l.cmpI32(enum.IPredEQ, xv, yv))
	case ast.OpNe:
		return session.Reg(l.cmpI32(enum.IPredNE, xv, yv))
	case ast.OpLt:
		return session.Reg(l.cmpI32(enum.IPredSLT, xv, yv))
	case ast.OpLe:
		return session.Reg(l.cmpI32(enum.IPredSLE, xv, yv))
	case ast.OpGt:
		return session.Reg(l.cmpI32(enum.IPredSGT, xv, yv))
	case ast.OpGe:
		return session.Reg(l.cmpI32(enum.IPredSGE, xv, yv))
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(n), "unknown binary operator"))
	}
}

func (l *Lowering) cmpI32(pred enum.IPred, x, y value.Value) value.Value {
	cmp := l.sess.CurBlock.NewICmp(pred, x, y)
	return l.sess.CurBlock.NewZExt(cmp, types.I32)
}

// foldBinary folds two constants in-host. Division and modulo by zero
// never fold (spec.md §7): the zero is propagated to a runtime
// instruction instead of trapping at compile time.
func foldBinary(op ast.BinOp, a, b int) (int, bool) {
	switch op {
	case ast.OpAdd:
		return a + b, true
	case ast.OpSub:
		return a - b, true
	case ast.OpMul:
		return a * b, true
	case ast.OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case ast.OpMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case ast.OpEq:
		return boolToInt(a == b), true
	case ast.OpNe:
		return boolToInt(a != b), true
	case ast.OpLt:
		return boolToInt(a < b), true
	case ast.OpLe:
		return boolToInt(a <= b), true
	case ast.OpGt:
		return boolToInt(a > b), true
	case ast.OpGe:
		return boolToInt(a >= b), true
	}
	return 0, false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// lowerLogical implements spec.md §4.4.2: short-circuit && and || are
// never a plain bitwise/logical op on non-constant operands.
func (l *Lowering) lowerLogical(n *ast.Binary) session.Result {
	lhs := l.lowerExpr(n.L)
	if lhs.Kind == session.IMM {
		decided, val := decidesLogical(n.Op, lhs.Value)
		if decided {
			return session.Imm(val)
		}
		// lhs doesn't decide the result on its own; no branch needed,
		// just evaluate and normalise the right side.
		rhs := l.lowerExpr(n.R)
		if rhs.Kind == session.IMM {
			return session.Imm(boolToInt(rhs.Value != 0))
		}
		return session.Reg(l.normalizeBool(toValue(rhs), enum.IPredNE))
	}

	id := l.sess.MintShortCircuit()
	resultCell := l.sess.CurBlock.NewAlloca(types.I32)
	resultCell.LocalName = nameOf("short_result", id)

	trueBlock := l.newBlock("short_true", id)
	falseBlock := l.newBlock("short_false", id)
	endBlock := l.newBlock("short_end", id)

	cond := l.sess.CurBlock.NewICmp(enum.IPredNE, toValue(lhs), constant.NewInt(types.I32, 0))
	l.sess.CurBlock.NewCondBr(cond, trueBlock, falseBlock)
	l.sess.Seal(l.sess.CurBlock)

	if n.Op == ast.OpLOr {
		l.sess.SetBlock(trueBlock)
		l.sess.CurBlock.NewStore(constant.NewInt(types.I32, 1), resultCell)
		l.sess.CurBlock.NewBr(endBlock)
		l.sess.Seal(trueBlock)

		l.sess.SetBlock(falseBlock)
		l.lowerShortCircuitRHS(n.R, resultCell)
		l.sess.CurBlock.NewBr(endBlock)
		l.sess.Seal(l.sess.CurBlock)
	} else {
		l.sess.SetBlock(falseBlock)
		l.sess.CurBlock.NewStore(constant.NewInt(types.I32, 0), resultCell)
		l.sess.CurBlock.NewBr(endBlock)
		l.sess.Seal(falseBlock)

		l.sess.SetBlock(trueBlock)
		l.lowerShortCircuitRHS(n.R, resultCell)
		l.sess.CurBlock.NewBr(endBlock)
		l.sess.Seal(l.sess.CurBlock)
	}

	l.sess.SetBlock(endBlock)
	loaded := l.sess.CurBlock.NewLoad(types.I32, resultCell)
	return session.Reg(loaded)
}

func (l *Lowering) lowerShortCircuitRHS(rhs ast.Expr, cell value.Value) {
	r := l.lowerExpr(rhs)
	var normalized value.Value
	if r.Kind == session.IMM {
		normalized = constant.NewInt(types.I32, int64(boolToInt(r.Value != 0)))
	} else {
		normalized = l.normalizeBool(toValue(r), enum.IPredNE)
	}
	l.sess.CurBlock.NewStore(normalized, cell)
}

// decidesLogical reports whether a constant left operand already
// decides a logical op's result (spec.md §4.4.2 step 1).
func decidesLogical(op ast.BinOp, lhs int) (decided bool, val int) {
	if op == ast.OpLOr && lhs != 0 {
		return true, 1
	}
	if op == ast.OpLAnd && lhs == 0 {
		return true, 0
	}
	return false, 0
}

func (l *Lowering) lowerCall(n *ast.Call) session.Result {
	f, ok := l.sess.Func(n.Name)
	if !ok {
		panic(diag.New(diag.UndeclaredIdent, l.pos(n), "call to undeclared function %q", n.Name))
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = toValue(l.lowerExpr(a))
	}
	call := l.sess.CurBlock.NewCall(f, args...)
	if !l.sess.FuncReturnsValue(n.Name) {
		return session.Imm(0)
	}
	return session.Reg(call)
}
