package frontend

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
)

// lowerBlock lowers each item of b in order, in the caller's current
// scope, stopping as soon as the scope is known-returned (spec.md
// §8's invariant: everything emitted after an unconditional return at
// this level is skipped, not just unreachable).
func (l *Lowering) lowerBlock(b *ast.Block) {
	for _, item := range b.Items {
		if l.sess.Scope.Returned() {
			break
		}
		switch n := item.(type) {
		case *ast.ConstDecl:
			l.lowerLocalConstDecl(n)
		case *ast.VarDecl:
			l.lowerLocalVarDecl(n)
		case ast.Stmt:
			l.lowerStmt(n)
		default:
			panic(diag.New(diag.InvalidIROp, diag.Pos{}, "unknown block item %T", n))
		}
	}
}

func (l *Lowering) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		rhs := l.lowerExpr(n.Value)
		l.writeLVal(n.LVal, rhs)
	case *ast.ExprStmt:
		if n.Expr != nil {
			l.lowerExpr(n.Expr)
		}
	case *ast.BlockStmt:
		outer := l.sess.Scope
		l.sess.Scope = outer.Push()
		l.lowerBlock(n.Block)
		returned := l.sess.Scope.Returned()
		l.sess.Scope = outer
		if returned {
			l.sess.Scope.MarkReturned()
		}
	case *ast.IfStmt:
		l.lowerIf(n)
	case *ast.WhileStmt:
		l.lowerWhile(n)
	case *ast.BreakStmt:
		l.lowerBreak(n)
	case *ast.ContinueStmt:
		l.lowerContinue(n)
	case *ast.ReturnStmt:
		l.lowerReturn(n)
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(n), "unknown statement %T", n))
	}
}

// condValue lowers e and compares it against zero, producing the i1
// branch operand every conditional terminator needs — Koopa-IR (and
// this compiler's object-graph model of it) carries no i1 type, so
// every other Result stays i32 and only branch sites make this
// comparison (spec.md §4.4.2/§4.4.3).
func (l *Lowering) condValue(e ast.Expr) value.Value {
	v := toValue(l.lowerExpr(e))
	return l.sess.CurBlock.NewICmp(enum.IPredNE, v, constant.NewInt(types.I32, 0))
}

func (l *Lowering) lowerIf(n *ast.IfStmt) {
	id := l.sess.MintIfElse()
	thenBlock := l.newBlock("then", id)
	var elseBlock *ir.Block
	if n.Else != nil {
		elseBlock = l.newBlock("else", id)
	}
	endBlock := l.newBlock("end", id)

	cond := l.condValue(n.Cond)
	elseTarget := endBlock
	if elseBlock != nil {
		elseTarget = elseBlock
	}
	l.sess.CurBlock.NewCondBr(cond, thenBlock, elseTarget)
	l.sess.Seal(l.sess.CurBlock)

	l.sess.SetBlock(thenBlock)
	l.lowerArm(n.Then)
	if !l.sess.Sealed(l.sess.CurBlock) {
		l.sess.CurBlock.NewBr(endBlock)
		l.sess.Seal(l.sess.CurBlock)
	}

	if elseBlock != nil {
		l.sess.SetBlock(elseBlock)
		l.lowerArm(n.Else)
		if !l.sess.Sealed(l.sess.CurBlock) {
			l.sess.CurBlock.NewBr(endBlock)
			l.sess.Seal(l.sess.CurBlock)
		}
	}

	l.sess.SetBlock(endBlock)
}

// lowerArm lowers one if/else arm in its own scope: a return inside an
// arm never forces the enclosing scope's returned flag (spec.md §4.1,
// §7) because the arm's scope is discarded, never merged upward.
func (l *Lowering) lowerArm(s ast.Stmt) {
	outer := l.sess.Scope
	l.sess.Scope = outer.Push()
	l.lowerStmt(s)
	l.sess.Scope = outer
}

func (l *Lowering) lowerWhile(n *ast.WhileStmt) {
	id := l.sess.MintWhile()
	entryBlock := l.newBlock("while_entry", id)
	bodyBlock := l.newBlock("while_body", id)
	endBlock := l.newBlock("while_end", id)

	l.sess.CurBlock.NewBr(entryBlock)
	l.sess.Seal(l.sess.CurBlock)

	l.sess.SetBlock(entryBlock)
	cond := l.condValue(n.Cond)
	l.sess.CurBlock.NewCondBr(cond, bodyBlock, endBlock)
	l.sess.Seal(entryBlock)

	l.sess.SetBlock(bodyBlock)
	l.sess.PushWhile(entryBlock, endBlock)
	l.lowerArm(n.Body)
	l.sess.PopWhile()
	if !l.sess.Sealed(l.sess.CurBlock) {
		l.sess.CurBlock.NewBr(entryBlock)
		l.sess.Seal(l.sess.CurBlock)
	}

	l.sess.SetBlock(endBlock)
}

// openJumpPad opens a fresh dead-code label after an unconditional
// control transfer, per spec.md §4.4.3/§4.4.4: keeps every basic block
// ending in exactly one terminator while letting syntactically-valid
// (but unreachable) statements still follow in the source.
func (l *Lowering) openJumpPad() {
	pad := l.newBlock("jump", l.sess.MintJumpPad())
	l.sess.SetBlock(pad)
}

func (l *Lowering) lowerBreak(n *ast.BreakStmt) {
	_, end, ok := l.sess.CurrentWhile()
	if !ok {
		panic(diag.New(diag.InvalidIROp, l.pos(n), "break outside a while loop"))
	}
	l.sess.CurBlock.NewBr(end)
	l.sess.Seal(l.sess.CurBlock)
	l.openJumpPad()
}

func (l *Lowering) lowerContinue(n *ast.ContinueStmt) {
	entry, _, ok := l.sess.CurrentWhile()
	if !ok {
		panic(diag.New(diag.InvalidIROp, l.pos(n), "continue outside a while loop"))
	}
	l.sess.CurBlock.NewBr(entry)
	l.sess.Seal(l.sess.CurBlock)
	l.openJumpPad()
}

func (l *Lowering) lowerReturn(n *ast.ReturnStmt) {
	if n.Value != nil {
		r := l.lowerExpr(n.Value)
		l.sess.CurBlock.NewRet(toValue(r))
	} else {
		l.sess.CurBlock.NewRet(nil)
	}
	l.sess.Seal(l.sess.CurBlock)
	l.sess.Scope.MarkReturned()
	l.openJumpPad()
}
