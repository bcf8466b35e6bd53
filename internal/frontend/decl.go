package frontend

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/symtab"
)

// lowerGlobalConstDecl defines each const at global scope. A scalar
// const never needs storage (read as IMM, spec.md §4.4.6's VAL row);
// an array const still needs memory since it may be indexed by a
// runtime-computed subscript.
func (l *Lowering) lowerGlobalConstDecl(decl *ast.ConstDecl) {
	for _, def := range decl.Defs {
		if len(def.Dims) == 0 {
			val := l.evalConstExpr(def.Init.Scalar)
			uname := l.sess.Scope.Mint(def.Name)
			must(l.sess.Scope.Define(def.Name, symtab.Symbol{Kind: symtab.VAL, Value: val}))
			_ = uname
			continue
		}
		dims := l.dimsOf(def.Dims)
		l.defineGlobalArray(def.Name, dims, def.Init, symtab.ARR)
	}
}

// lowerGlobalVarDecl defines each global variable: scalar → a single
// i32 global with init or zeroinit; array → a nested-aggregate or
// zeroinit global per spec.md §4.4.5.
func (l *Lowering) lowerGlobalVarDecl(decl *ast.VarDecl) {
	for _, def := range decl.Defs {
		if len(def.Dims) == 0 {
			var initConst constant.Constant = constant.NewZeroInitializer(types.I32)
			if def.Init != nil {
				initConst = l.scalarInitConst(def.Init.Scalar)
			}
			uname := l.sess.Scope.Mint(def.Name)
			g := l.sess.Module.NewGlobalDef(uname, initConst)
			must(l.sess.Scope.Define(def.Name, symtab.Symbol{Kind: symtab.VAR, Value: 0}))
			l.sess.BindAddr(uname, g)
			l.sess.BindElemType(uname, types.I32)
			continue
		}
		dims := l.dimsOf(def.Dims)
		l.defineGlobalArray(def.Name, dims, def.Init, symtab.ARR)
	}
}

func (l *Lowering) defineGlobalArray(name string, dims []int, init *ast.Init, kind symtab.Kind) {
	elemType := buildArrayType(dims, types.I32)
	uname := l.sess.Scope.Mint(name)

	var initConst constant.Constant
	if init == nil {
		initConst = constant.NewZeroInitializer(elemType)
	} else {
		buf := l.resolveInit(init, dims)
		if allZero(buf) {
			initConst = constant.NewZeroInitializer(elemType)
		} else {
			initConst = buildNestedConstant(buf, dims)
		}
	}

	g := l.sess.Module.NewGlobalDef(uname, initConst)
	must(l.sess.Scope.Define(name, symtab.Symbol{Kind: kind, Value: len(dims)}))
	l.sess.BindAddr(uname, g)
	l.sess.BindElemType(uname, elemType)
}

// buildNestedConstant folds a flat buffer back into nested
// constant.Array literals matching dims, outermost dimension first.
func buildNestedConstant(buf []int, dims []int) constant.Constant {
	if len(dims) == 1 {
		elems := make([]constant.Constant, dims[0])
		for i := range elems {
			elems[i] = constant.NewInt(types.I32, int64(buf[i]))
		}
		return constant.NewArray(types.NewArray(uint64(dims[0]), types.I32), elems...)
	}
	innerDims := dims[1:]
	innerLen := productOf(innerDims)
	innerType := buildArrayType(innerDims, types.I32)
	elems := make([]constant.Constant, dims[0])
	for i := 0; i < dims[0]; i++ {
		elems[i] = buildNestedConstant(buf[i*innerLen:(i+1)*innerLen], innerDims)
	}
	return constant.NewArray(types.NewArray(uint64(dims[0]), innerType), elems...)
}

func must(err error) {
	if err != nil {
		panic(diag.New(diag.DuplicateDefinition, diag.Pos{}, "%s", err.Error()))
	}
}
