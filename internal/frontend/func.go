package frontend

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"sysyc/internal/ast"
	"sysyc/internal/symtab"
)

// paramType computes a parameter's graph type: a scalar int is i32; an
// array parameter's outermost dimension is always unspecified (it
// decays to a pointer, spec.md §4.4.6's PTR row), so its type is a
// pointer to the nested type of the remaining declared dimensions (or
// a bare `*i32` if no inner dimensions were declared).
func (l *Lowering) paramType(p *ast.Param) types.Type {
	if !p.IsArray {
		return types.I32
	}
	inner := buildArrayType(l.dimsOf(p.Dims), types.I32)
	return types.NewPointer(inner)
}

// declareFunc registers a function's signature and return-value fact
// before any body is lowered, so forward and mutually recursive calls
// resolve (spec.md §5's ordering guarantee only fixes emission order,
// not the requirement that every callee be resolvable).
func (l *Lowering) declareFunc(fd *ast.FuncDef) {
	retType := types.Type(types.Void)
	returnsValue := fd.Ret == ast.FuncInt
	if returnsValue {
		retType = types.I32
	}
	params := make([]*ir.Param, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = ir.NewParam(p.Name, l.paramType(p))
	}
	f := l.sess.Module.NewFunc(fd.Name, retType, params...)
	l.sess.BindFunc(fd.Name, f)
	l.sess.DeclareFunc(fd.Name, returnsValue)
}

// lowerFuncDef emits the body of a previously declared function:
// opens the entry block, gives every parameter a stack slot (so reads
// and writes to it follow the uniform VAR/PTR rules of spec.md
// §4.4.6), lowers the block, then guarantees a trailing return so
// callers may rely on termination (spec.md §4.4.4).
func (l *Lowering) lowerFuncDef(fd *ast.FuncDef) {
	f, _ := l.sess.Func(fd.Name)
	l.sess.CurFunc = f
	l.sess.ResetFunc()
	l.sess.SetGlobal(false)

	parent := l.sess.Scope
	l.sess.Scope = parent.Push()
	defer func() { l.sess.Scope = parent }()

	entry := f.NewBlock("entry")
	l.sess.SetBlock(entry)

	for i, p := range fd.Params {
		l.defineParam(p, f.Params[i])
	}

	l.lowerBlock(fd.Body)

	if !l.sess.Sealed(l.sess.CurBlock) {
		if fd.Ret == ast.FuncInt {
			l.sess.CurBlock.NewRet(constant.NewInt(types.I32, 0))
		} else {
			l.sess.CurBlock.NewRet(nil)
		}
		l.sess.Seal(l.sess.CurBlock)
	}

	l.sess.Scope.MarkReturned()
	l.sess.CurFunc = nil
}

func (l *Lowering) defineParam(p *ast.Param, arg *ir.Param) {
	uname := l.sess.Scope.Mint(p.Name)
	if !p.IsArray {
		must(l.sess.Scope.Define(p.Name, symtab.Symbol{Kind: symtab.VAR, Value: 0}))
		slot := l.sess.CurBlock.NewAlloca(types.I32)
		slot.LocalName = uname
		l.sess.CurBlock.NewStore(arg, slot)
		l.sess.BindAddr(uname, slot)
		l.sess.BindElemType(uname, types.I32)
		return
	}
	must(l.sess.Scope.Define(p.Name, symtab.Symbol{Kind: symtab.PTR, Value: len(p.Dims) + 1}))
	ptrType := arg.Type()
	slot := l.sess.CurBlock.NewAlloca(ptrType)
	slot.LocalName = uname
	l.sess.CurBlock.NewStore(arg, slot)
	l.sess.BindAddr(uname, slot)
	l.sess.BindElemType(uname, ptrType.(*types.PointerType).ElemType)
}
