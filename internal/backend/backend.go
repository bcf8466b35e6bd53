// Package backend walks the IR object graph (an *ir.Module produced
// by re-parsing the frontend's emitted text with
// github.com/llir/llvm/asm — the "IR parser library" of spec.md §2's
// C5) and emits RV32IM assembly (spec.md §4.5). Grounded on
// _examples/original_source/lv9's backend_utils.cpp (`Context`,
// `ContextManager`, `RegisterManager`, the `visit(koopa_raw_value_t)`
// dispatch).
package backend

import (
	"fmt"
	"io"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"sysyc/internal/diag"
	"sysyc/internal/riscv"
)

// Compile walks mod and writes RV32IM assembly to out. Globals are
// emitted before functions, .data before .text (spec.md §5's ordering
// guarantee).
func Compile(mod *ir.Module, out io.Writer) error {
	w := riscv.NewWriter(out)

	if len(mod.Globals) > 0 {
		w.DataSection()
		for _, g := range mod.Globals {
			emitGlobal(w, g)
		}
	}

	w.TextSection()
	for _, f := range mod.Funcs {
		if len(f.Blocks) == 0 {
			continue // library declaration, no body to codegen
		}
		if err := compileFunc(w, f); err != nil {
			return err
		}
	}

	return w.Flush()
}

func emitGlobal(w *riscv.Writer, g *ir.Global) {
	name := globalName(g)
	w.Globl(name)
	w.Label(name)
	emitInit(w, g.Init)
}

func emitInit(w *riscv.Writer, c constant.Constant) {
	switch v := c.(type) {
	case *constant.Int:
		w.Word(int32(v.X.Int64()))
	case *constant.ZeroInitializer:
		w.Zero(sizeOfType(v.Typ))
	case *constant.Array:
		for _, elem := range v.Elems {
			emitInit(w, elem)
		}
	default:
		panic(diag.New(diag.InvalidInitializer, diag.Pos{}, "unsupported global initializer kind %T", c))
	}
}

func globalName(g *ir.Global) string { return g.Name() }

// sizeOfType computes an IR type's byte footprint recursively over
// its pointee shape (spec.md §4.5.1): i32/pointer are 4 bytes,
// array-of-N-T is N*sizeof(T), unit/function types are 0.
func sizeOfType(t types.Type) int {
	switch v := t.(type) {
	case *types.IntType:
		return 4
	case *types.PointerType:
		return 4
	case *types.ArrayType:
		return int(v.Len) * sizeOfType(v.ElemType)
	case *types.VoidType:
		return 0
	case *types.FuncType:
		return 0
	default:
		panic(fmt.Sprintf("unsupported type in sizeOfType: %T", t))
	}
}
