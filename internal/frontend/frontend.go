// Package frontend lowers a SysY AST (internal/ast) into an IR object
// graph built with github.com/llir/llvm/ir's native constructors
// (spec.md §4.3–§4.4, SPEC_FULL §3–§4). Grounded on
// _examples/original_source's frontend_utils.cpp/visit.cpp
// (one lower-like method per node kind) and the teacher's
// compiler.Compiler visitor-per-node-type shape.
package frontend

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"sysyc/internal/ast"
	"sysyc/internal/diag"
	"sysyc/internal/session"
	"sysyc/internal/symtab"
)

// Lowering is the frontend's working context: a thin wrapper around
// the owned Session (spec.md §9) plus the library I/O declarations it
// seeds into the module before lowering any user code.
type Lowering struct {
	sess *session.Session
	file string
}

// Lower builds the complete IR object graph for prog: library
// declarations first, then globals in source order, then functions in
// source order (spec.md §5's ordering guarantee).
func Lower(prog *ast.Program, file string) (mod *ir.Module, sess *session.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*diag.CompileError); ok {
				err = ce
				return
			}
			err = errors.Errorf("internal error during lowering: %v", r)
		}
	}()

	mod = ir.NewModule()
	sess = session.New(mod)
	l := &Lowering{sess: sess, file: file}

	l.declareLibrary()

	// First pass: register every function name (so forward calls
	// between functions resolve) without emitting bodies.
	for _, item := range prog.Items {
		if fd, ok := item.(*ast.FuncDef); ok {
			l.declareFunc(fd)
		}
	}

	for _, item := range prog.Items {
		switch n := item.(type) {
		case *ast.ConstDecl:
			l.lowerGlobalConstDecl(n)
		case *ast.VarDecl:
			l.lowerGlobalVarDecl(n)
		case *ast.FuncDef:
			l.lowerFuncDef(n)
		default:
			panic(diag.New(diag.InvalidIROp, diag.Pos{File: file}, "unknown top-level item %T", n))
		}
	}

	return mod, sess, nil
}

// declareLibrary emits the fixed I/O library signatures once at
// program start (spec.md §4.2/§6): getint/getch/getarray return i32,
// the rest return void.
func (l *Lowering) declareLibrary() {
	sig := map[string]*types.FuncType{
		"getint":    types.NewFunc(types.I32),
		"getch":     types.NewFunc(types.I32),
		"getarray":  types.NewFunc(types.I32, types.NewPointer(types.I32)),
		"putint":    types.NewFunc(types.Void, types.I32),
		"putch":     types.NewFunc(types.Void, types.I32),
		"putarray":  types.NewFunc(types.Void, types.I32, types.NewPointer(types.I32)),
		"starttime": types.NewFunc(types.Void),
		"stoptime":  types.NewFunc(types.Void),
	}
	for _, name := range l.sess.LibraryFuncs() {
		ft := sig[name]
		f := ir.NewFunc(name, ft.RetType, toParams(ft.Params)...)
		l.sess.Module.Funcs = append(l.sess.Module.Funcs, f)
		l.sess.BindFunc(name, f)
	}
}

func toParams(types_ []types.Type) []*ir.Param {
	out := make([]*ir.Param, len(types_))
	for i, t := range types_ {
		out[i] = ir.NewParam("", t)
	}
	return out
}

func (l *Lowering) pos(n ast.Node) diag.Pos {
	p := astPos(n)
	return diag.Pos{File: l.file, Line: p.Line, Col: p.Col}
}

// astPos extracts the Pos embedded in every concrete AST node. AST
// node variants all carry a Pos field by convention (SPEC_FULL §7);
// this central switch is the one place that convention is relied on.
func astPos(n ast.Node) ast.Pos {
	switch v := n.(type) {
	case *ast.FuncDef:
		return v.Pos
	case *ast.Block:
		return v.Pos
	case *ast.ConstDecl:
		return v.Pos
	case *ast.VarDecl:
		return v.Pos
	case *ast.AssignStmt:
		return v.Pos
	case *ast.ExprStmt:
		return v.Pos
	case *ast.BlockStmt:
		return v.Pos
	case *ast.IfStmt:
		return v.Pos
	case *ast.WhileStmt:
		return v.Pos
	case *ast.BreakStmt:
		return v.Pos
	case *ast.ContinueStmt:
		return v.Pos
	case *ast.ReturnStmt:
		return v.Pos
	case *ast.LVal:
		return v.Pos
	case *ast.Number:
		return v.Pos
	case *ast.LValExpr:
		return v.Pos
	case *ast.Call:
		return v.Pos
	case *ast.Unary:
		return v.Pos
	case *ast.Binary:
		return v.Pos
	default:
		return ast.Pos{}
	}
}

// scalarInitConst folds a global scalar initializer to a constant.Int;
// globals require a compile-time constant initializer.
func (l *Lowering) scalarInitConst(e ast.Expr) constant.Constant {
	r := l.lowerExpr(e)
	if r.Kind != session.IMM {
		panic(diag.New(diag.InitializerShape, l.pos(e), "global initializer must be a compile-time constant"))
	}
	return constant.NewInt(types.I32, int64(r.Value))
}

func symKindName(k symtab.Kind) string {
	switch k {
	case symtab.VAR:
		return "VAR"
	case symtab.VAL:
		return "VAL"
	case symtab.ARR:
		return "ARR"
	case symtab.PTR:
		return "PTR"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}
