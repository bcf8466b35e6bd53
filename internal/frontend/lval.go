package frontend

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/session"
	"sysyc/internal/symtab"
)

// resolveSymbol looks up name in the active scope chain and returns
// both the symbol and its uniquified "name_depth" graph identifier
// (spec.md §3.3).
func (l *Lowering) resolveSymbol(name string) (symtab.Symbol, string, bool) {
	sym, ok := l.sess.Scope.Lookup(name)
	if !ok {
		return symtab.Symbol{}, "", false
	}
	return sym, l.sess.Scope.Uniquify(name), true
}

// readLVal implements spec.md §4.4.6's read column.
func (l *Lowering) readLVal(lv *ast.LVal) session.Result {
	sym, uname, ok := l.resolveSymbol(lv.Name)
	if !ok {
		panic(diag.New(diag.UndeclaredIdent, l.pos(lv), "undeclared identifier %q", lv.Name))
	}
	if len(lv.Indices) > sym.Value && (sym.Kind == symtab.ARR || sym.Kind == symtab.PTR) {
		panic(diag.New(diag.InvalidIROp, l.pos(lv), "too many indices for %q", lv.Name))
	}
	switch sym.Kind {
	case symtab.VAL:
		if len(lv.Indices) != 0 {
			panic(diag.New(diag.InvalidIROp, l.pos(lv), "%q is a scalar constant, cannot be indexed", lv.Name))
		}
		return session.Imm(sym.Value)
	case symtab.VAR:
		addr, _ := l.sess.Addr(uname)
		loaded := l.sess.CurBlock.NewLoad(types.I32, addr)
		return session.Reg(loaded)
	case symtab.ARR:
		addr := l.arrayAccess(uname, lv.Indices, sym.Value)
		return l.finishAccess(addr, lv.Indices, sym.Value)
	case symtab.PTR:
		addr := l.ptrAccess(uname, lv.Indices, sym.Value)
		return l.finishAccess(addr, lv.Indices, sym.Value)
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(lv), "unknown symbol kind"))
	}
}

// writeLVal implements spec.md §4.4.6's write column. Assignment
// always targets a scalar element, so the index walk always consumes
// every declared dimension.
func (l *Lowering) writeLVal(lv *ast.LVal, rhs session.Result) {
	sym, uname, ok := l.resolveSymbol(lv.Name)
	if !ok {
		panic(diag.New(diag.UndeclaredIdent, l.pos(lv), "undeclared identifier %q", lv.Name))
	}
	switch sym.Kind {
	case symtab.VAL:
		panic(diag.New(diag.AssignToConst, l.pos(lv), "cannot assign to constant %q", lv.Name))
	case symtab.VAR:
		addr, _ := l.sess.Addr(uname)
		l.sess.CurBlock.NewStore(toValue(rhs), addr)
	case symtab.ARR:
		addr := l.arrayAccess(uname, lv.Indices, sym.Value)
		l.sess.CurBlock.NewStore(toValue(rhs), addr)
	case symtab.PTR:
		addr := l.ptrAccess(uname, lv.Indices, sym.Value)
		l.sess.CurBlock.NewStore(toValue(rhs), addr)
	default:
		panic(diag.New(diag.InvalidIROp, l.pos(lv), "unknown symbol kind"))
	}
}

// finishAccess applies the terminal load/decay rule shared by ARR and
// PTR: once every declared dimension has a specified index, the
// address points at a scalar and is loaded; otherwise the (already
// one-more-decayed, see arrayAccess/ptrAccess) pointer is the result.
func (l *Lowering) finishAccess(addr value.Value, indices []ast.Expr, totalDims int) session.Result {
	if len(indices) == totalDims {
		loaded := l.sess.CurBlock.NewLoad(types.I32, addr)
		return session.Reg(loaded)
	}
	return session.Reg(addr)
}

// arrayAccess walks a known-shape array (`getelemptr`, spec.md
// §4.4.6): each specified index decays one declared dimension via a
// two-index GEP (`0, i` — SPEC_FULL §3's Koopa→LLVM GEP mapping). If
// fewer indices are given than the array has dimensions, one more
// zero-index step decays the next dimension so the caller gets a
// usable sub-array pointer instead of stopping mid-shape.
func (l *Lowering) arrayAccess(uname string, indices []ast.Expr, totalDims int) value.Value {
	cur, _ := l.sess.Addr(uname)
	curType, _ := l.sess.ElemType(uname)
	zero := constant.NewInt(types.I32, 0)
	for _, idxExpr := range indices {
		idx := toValue(l.lowerExpr(idxExpr))
		cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, zero, idx)
		curType = arrayElemType(curType)
	}
	if len(indices) < totalDims {
		cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, zero, zero)
	}
	return cur
}

// ptrAccess walks a decayed-pointer parameter (`getptr` then
// `getelemptr`, spec.md §4.4.6): the first index steps by the
// pointee's element stride (a one-index GEP — `getptr`'s semantics,
// since the outer dimension is unknown), every later index decays a
// further known dimension exactly like arrayAccess.
func (l *Lowering) ptrAccess(uname string, indices []ast.Expr, totalDims int) value.Value {
	slot, _ := l.sess.Addr(uname)
	innerType, _ := l.sess.ElemType(uname)
	slotPtrType := slot.Type().(*types.PointerType)
	basePtr := l.sess.CurBlock.NewLoad(slotPtrType.ElemType, slot)

	if len(indices) == 0 {
		return basePtr
	}

	zero := constant.NewInt(types.I32, 0)
	cur := value.Value(basePtr)
	curType := innerType
	for i, idxExpr := range indices {
		idx := toValue(l.lowerExpr(idxExpr))
		if i == 0 {
			cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, idx)
			continue
		}
		cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, zero, idx)
		curType = arrayElemType(curType)
	}
	if len(indices) < totalDims {
		cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, zero, zero)
	}
	return cur
}

func arrayElemType(t types.Type) types.Type {
	if at, ok := t.(*types.ArrayType); ok {
		return at.ElemType
	}
	return t
}
