package frontend

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sysyc/internal/ast"
	"sysyc/internal/symtab"
)

func (l *Lowering) lowerLocalConstDecl(decl *ast.ConstDecl) {
	for _, def := range decl.Defs {
		if len(def.Dims) == 0 {
			val := l.evalConstExpr(def.Init.Scalar)
			must(l.sess.Scope.Define(def.Name, symtab.Symbol{Kind: symtab.VAL, Value: val}))
			continue
		}
		l.defineLocalArray(def.Name, l.dimsOf(def.Dims), def.Init)
	}
}

func (l *Lowering) lowerLocalVarDecl(decl *ast.VarDecl) {
	for _, def := range decl.Defs {
		if len(def.Dims) == 0 {
			uname := l.sess.Scope.Mint(def.Name)
			must(l.sess.Scope.Define(def.Name, symtab.Symbol{Kind: symtab.VAR, Value: 0}))
			slot := l.sess.CurBlock.NewAlloca(types.I32)
			slot.LocalName = uname
			l.sess.BindAddr(uname, slot)
			l.sess.BindElemType(uname, types.I32)
			l.sess.MarkAllocated(uname)
			if def.Init != nil {
				rhs := l.lowerExpr(def.Init.Scalar)
				l.sess.CurBlock.NewStore(toValue(rhs), slot)
			}
			continue
		}
		l.defineLocalArray(def.Name, l.dimsOf(def.Dims), def.Init)
	}
}

// defineLocalArray allocates a local array and, if an initializer is
// present, resolves it per spec.md §4.4.5 and emits the getelemptr +
// store sequence (locals can never use zeroinit).
func (l *Lowering) defineLocalArray(name string, dims []int, init *ast.Init) {
	arrType := buildArrayType(dims, types.I32)
	uname := l.sess.Scope.Mint(name)
	slot := l.sess.CurBlock.NewAlloca(arrType)
	slot.LocalName = uname
	must(l.sess.Scope.Define(name, symtab.Symbol{Kind: symtab.ARR, Value: len(dims)}))
	l.sess.BindAddr(uname, slot)
	l.sess.BindElemType(uname, arrType)
	l.sess.MarkAllocated(uname)

	if init != nil {
		buf := l.resolveInit(init, dims)
		l.emitLocalArrayInit(slot, arrType, dims, buf)
	}
}

func (l *Lowering) emitLocalArrayInit(base value.Value, arrType types.Type, dims []int, buf []int) {
	strides := computeStrides(dims)
	for k, v := range buf {
		idxs := make([]int, len(dims))
		for i, s := range strides {
			idxs[i] = (k / s) % dims[i]
		}
		addr := l.gepChainConst(base, arrType, idxs)
		l.sess.CurBlock.NewStore(constant.NewInt(types.I32, int64(v)), addr)
	}
}

// gepChainConst walks dims-many literal-index getelemptr steps from
// base, mirroring arrayAccess's expression-indexed walk but with
// compile-time-known indices (used for resolved array initializers).
func (l *Lowering) gepChainConst(base value.Value, baseType types.Type, idxs []int) value.Value {
	cur := base
	curType := baseType
	zero := constant.NewInt(types.I32, 0)
	for _, idx := range idxs {
		iv := constant.NewInt(types.I32, int64(idx))
		cur = l.sess.CurBlock.NewGetElementPtr(curType, cur, zero, iv)
		curType = arrayElemType(curType)
	}
	return cur
}
