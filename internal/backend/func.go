package backend

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"sysyc/internal/diag"
	"sysyc/internal/riscv"
)

// funcCtx is the per-function backend state: the frame size computed up
// front (spec.md §4.5.1), a lazily-grown stack map from every SSA value
// that gets a slot to its sp-relative offset (spec.md §4.5.2), and a
// scratch-register pool reset at the top of every instruction.
type funcCtx struct {
	f         *ir.Func
	frame     int
	hasCall   bool
	stackUsed int
	stackMap  map[value.Value]int
	scratch   riscv.ScratchPool
	branchID  int
}

func (ctx *funcCtx) blockLabel(b *ir.Block) string {
	return ctx.f.Name() + "_" + b.Name()
}

func (ctx *funcCtx) nextBranchID() int {
	id := ctx.branchID
	ctx.branchID++
	return id
}

// store reserves the next stack slot for val's result and writes reg
// into it — every non-void instruction's result lives on the stack,
// never in a register across instruction boundaries (spec.md §4.5.3).
func (ctx *funcCtx) store(w *riscv.Writer, val value.Value, reg string) {
	off := ctx.stackUsed
	ctx.stackUsed += 4
	ctx.stackMap[val] = off
	w.Sw(reg, off, "sp", ctx.scratch.Next())
}

// compileFunc emits one function's prologue, body, and the implicit
// epilogue each `ret` terminator carries (spec.md §4.5). Grounded on
// original_source/lv9's backend_utils.cpp per-function codegen pass:
// frame size is computed once up front, then every instruction reads
// and writes the stack directly through a tiny scratch-register pool
// rather than a real allocator.
func compileFunc(w *riscv.Writer, f *ir.Func) error {
	info := analyzeFunc(f)
	frame := frameBytes(info)

	ctx := &funcCtx{
		f:         f,
		frame:     frame,
		hasCall:   info.hasCall == 1,
		stackUsed: info.s * 4,
		stackMap:  map[value.Value]int{},
	}

	w.Globl(f.Name())
	w.Label(f.Name())
	w.Addi("sp", "sp", -frame, "t0")
	if ctx.hasCall {
		w.Sw("ra", frame-4, "sp", "t1")
	}

	for _, b := range f.Blocks {
		w.Label(ctx.blockLabel(b))
		for _, inst := range b.Insts {
			emitInst(w, ctx, inst)
		}
		emitTerm(w, ctx, b.Term)
	}
	return nil
}

func emitInst(w *riscv.Writer, ctx *funcCtx, inst ir.Instruction) {
	ctx.scratch.Reset()
	switch v := inst.(type) {
	case *ir.InstAlloca:
		sz := sizeOfType(v.ElemType)
		ctx.stackMap[v] = ctx.stackUsed
		ctx.stackUsed += sz
	case *ir.InstLoad:
		emitLoad(w, ctx, v)
	case *ir.InstStore:
		emitStore(w, ctx, v)
	case *ir.InstGetElementPtr:
		emitGEP(w, ctx, v)
	case *ir.InstICmp:
		emitICmp(w, ctx, v)
	case *ir.InstZExt:
		emitZExt(w, ctx, v)
	case *ir.InstAdd:
		emitBinArith(w, ctx, v, v.X, v.Y, (*riscv.Writer).Add)
	case *ir.InstSub:
		emitBinArith(w, ctx, v, v.X, v.Y, (*riscv.Writer).Sub)
	case *ir.InstMul:
		emitBinArith(w, ctx, v, v.X, v.Y, (*riscv.Writer).Mul)
	case *ir.InstSDiv:
		emitBinArith(w, ctx, v, v.X, v.Y, (*riscv.Writer).Div)
	case *ir.InstSRem:
		emitBinArith(w, ctx, v, v.X, v.Y, (*riscv.Writer).Rem)
	case *ir.InstCall:
		emitCall(w, ctx, v)
	default:
		panic(diag.New(diag.InvalidIROp, diag.Pos{}, "unsupported IR instruction %T", inst))
	}
}

type arithOp func(w *riscv.Writer, rd, rs1, rs2 string)

func emitBinArith(w *riscv.Writer, ctx *funcCtx, inst value.Value, x, y value.Value, op arithOp) {
	xr := ctx.loadOperand(w, x)
	yr := ctx.loadOperand(w, y)
	dst := ctx.scratch.Next()
	op(w, dst, xr, yr)
	ctx.store(w, inst, dst)
}

// emitICmp lowers the six signed integer comparisons onto RV32's
// single-direction slt, following original_source/lv9's pattern of
// deriving eq/ne/le/ge from slt+xor+seqz/snez rather than a branch.
func emitICmp(w *riscv.Writer, ctx *funcCtx, v *ir.InstICmp) {
	xr := ctx.loadOperand(w, v.X)
	yr := ctx.loadOperand(w, v.Y)
	dst := ctx.scratch.Next()
	switch v.Pred {
	case enum.IPredEQ:
		w.Xor(dst, xr, yr)
		w.Seqz(dst, dst)
	case enum.IPredNE:
		w.Xor(dst, xr, yr)
		w.Snez(dst, dst)
	case enum.IPredSLT:
		w.Slt(dst, xr, yr)
	case enum.IPredSLE:
		w.Sgt(dst, xr, yr)
		w.Seqz(dst, dst)
	case enum.IPredSGT:
		w.Sgt(dst, xr, yr)
	case enum.IPredSGE:
		w.Slt(dst, xr, yr)
		w.Seqz(dst, dst)
	default:
		panic(diag.New(diag.InvalidIROp, diag.Pos{}, "unsupported icmp predicate %v", v.Pred))
	}
	ctx.store(w, v, dst)
}

// emitZExt is a bookkeeping-only step: emitICmp already stores every
// icmp result as a full 0/1 word, so zext is just a slot-to-slot copy.
func emitZExt(w *riscv.Writer, ctx *funcCtx, v *ir.InstZExt) {
	r := ctx.loadOperand(w, v.From)
	ctx.store(w, v, r)
}

func emitLoad(w *riscv.Writer, ctx *funcCtx, v *ir.InstLoad) {
	dst := ctx.scratch.Next()
	switch src := v.Src.(type) {
	case *ir.Global:
		addr := ctx.scratch.Next()
		w.La(addr, src.Name())
		w.Raw("  lw %s, 0(%s)\n", dst, addr)
	case *ir.InstAlloca:
		off := ctx.stackMap[src]
		w.Lw(dst, off, "sp", ctx.scratch.Next())
	default:
		ptr := ctx.loadOperand(w, v.Src)
		w.Raw("  lw %s, 0(%s)\n", dst, ptr)
	}
	ctx.store(w, v, dst)
}

func emitStore(w *riscv.Writer, ctx *funcCtx, v *ir.InstStore) {
	valReg := ctx.loadOperand(w, v.Src)
	switch dst := v.Dst.(type) {
	case *ir.Global:
		addr := ctx.scratch.Next()
		w.La(addr, dst.Name())
		w.Raw("  sw %s, 0(%s)\n", valReg, addr)
	case *ir.InstAlloca:
		off := ctx.stackMap[dst]
		w.Sw(valReg, off, "sp", ctx.scratch.Next())
	default:
		ptr := ctx.loadOperand(w, v.Dst)
		w.Raw("  sw %s, 0(%s)\n", valReg, ptr)
	}
}

// emitGEP covers both shapes the frontend emits (lval.go's arrayAccess
// / ptrAccess): a two-index getelemptr decaying one array dimension
// (first index always the constant 0) and a one-index getptr taking an
// element-stride step. Either way only the last index carries real
// information; its stride is the size of whatever gepStepSize reports.
func emitGEP(w *riscv.Writer, ctx *funcCtx, v *ir.InstGetElementPtr) {
	base := ctx.scratch.Next()
	ctx.resolveAddr(w, v.Src, base)

	idx := v.Indices[len(v.Indices)-1]
	elemSize := gepStepSize(v)
	dst := ctx.scratch.Next()

	if lit, ok := idx.(*constant.Int); ok && lit.X.Int64() == 0 {
		w.Mv(dst, base)
		ctx.store(w, v, dst)
		return
	}

	idxReg := ctx.loadOperand(w, idx)
	switch {
	case elemSize == 1:
		w.Add(dst, base, idxReg)
	default:
		if shift := riscv.IsPowerOfTwo(elemSize); shift > 0 {
			shamt := ctx.scratch.Next()
			w.Li(shamt, int64(shift))
			w.Sll(idxReg, idxReg, shamt)
		} else {
			sz := ctx.scratch.Next()
			w.Li(sz, int64(elemSize))
			w.Mul(idxReg, idxReg, sz)
		}
		w.Add(dst, base, idxReg)
	}
	ctx.store(w, v, dst)
}

// gepStepSize reports the byte stride of a GEP's final index: a
// two-index GEP decays one array dimension (stride = size of the
// array's own element type), a one-index GEP steps directly in units
// of its pointee type.
func gepStepSize(v *ir.InstGetElementPtr) int {
	if len(v.Indices) >= 2 {
		return sizeOfType(arrayElemType(v.ElemType))
	}
	return sizeOfType(v.ElemType)
}

func arrayElemType(t types.Type) types.Type {
	if arr, ok := t.(*types.ArrayType); ok {
		return arr.ElemType
	}
	return t
}

func emitCall(w *riscv.Writer, ctx *funcCtx, v *ir.InstCall) {
	for i, arg := range v.Args {
		r := ctx.loadOperand(w, arg)
		if i < 8 {
			w.Mv(fmt.Sprintf("a%d", i), r)
		} else {
			off := (i - 8) * 4
			w.Sw(r, off, "sp", ctx.scratch.Next())
		}
	}
	w.Call(calleeName(v.Callee))
	if _, isVoid := v.Type().(*types.VoidType); !isVoid {
		dst := ctx.scratch.Next()
		w.Mv(dst, "a0")
		ctx.store(w, v, dst)
	}
}

func calleeName(v value.Value) string {
	if f, ok := v.(*ir.Func); ok {
		return f.Name()
	}
	return fmt.Sprintf("%v", v)
}

func emitTerm(w *riscv.Writer, ctx *funcCtx, term ir.Terminator) {
	ctx.scratch.Reset()
	switch t := term.(type) {
	case *ir.TermCondBr:
		cond := ctx.loadOperand(w, t.Cond)
		id := ctx.nextBranchID()
		w.CondBranchTrampoline(true, cond, ctx.blockLabel(t.TargetTrue), id)
		w.J(ctx.blockLabel(t.TargetFalse))
	case *ir.TermBr:
		w.J(ctx.blockLabel(t.Target))
	case *ir.TermRet:
		if t.X != nil {
			r := ctx.loadOperand(w, t.X)
			w.Mv("a0", r)
		}
		epilogue(w, ctx)
	default:
		panic(diag.New(diag.InvalidIROp, diag.Pos{}, "unsupported terminator %T", term))
	}
}

func epilogue(w *riscv.Writer, ctx *funcCtx) {
	if ctx.hasCall {
		w.Lw("ra", ctx.frame-4, "sp", ctx.scratch.Next())
	}
	w.Addi("sp", "sp", ctx.frame, ctx.scratch.Next())
	w.Ret()
}

// resolveAddr materializes the base address of v into dst: a global
// needs `la`, an alloca's address is just its own stack offset, and
// anything else (a prior getelemptr/getptr result, a pointer-typed
// parameter) is a value already living in its own stack slot.
func (ctx *funcCtx) resolveAddr(w *riscv.Writer, v value.Value, dst string) {
	switch x := v.(type) {
	case *ir.Global:
		w.La(dst, x.Name())
	case *ir.InstAlloca:
		off := ctx.stackMap[x]
		w.Addi(dst, "sp", off, ctx.scratch.Next())
	default:
		reg := ctx.loadOperand(w, v)
		w.Mv(dst, reg)
	}
}

// loadOperand materializes any operand into a scratch register: a
// zero literal reads x0, a non-zero literal is `li`'d, a parameter
// reads its argument register or its caller-supplied stack slot, and
// anything else is `lw`'d from the slot a prior instruction stored its
// result into (spec.md §4.5.3's load_operand rules).
func (ctx *funcCtx) loadOperand(w *riscv.Writer, v value.Value) string {
	switch x := v.(type) {
	case *constant.Int:
		n := x.X.Int64()
		if n == 0 {
			return "x0"
		}
		r := ctx.scratch.Next()
		w.Li(r, n)
		return r
	case *ir.Param:
		return ctx.paramReg(w, x)
	default:
		off, ok := ctx.stackMap[v]
		if !ok {
			panic(diag.New(diag.InvalidIROp, diag.Pos{}, "operand read before its value was materialized"))
		}
		r := ctx.scratch.Next()
		w.Lw(r, off, "sp", ctx.scratch.Next())
		return r
	}
}

// paramReg implements the func_arg_ref rule: the first 8 arguments
// live in a0-a7, the rest were pushed by the caller into its own
// outgoing-argument region, now sitting just above this frame.
func (ctx *funcCtx) paramReg(w *riscv.Writer, p *ir.Param) string {
	idx := paramIndex(ctx.f, p)
	if idx < 8 {
		return fmt.Sprintf("a%d", idx)
	}
	off := ctx.frame + (idx-8)*4
	r := ctx.scratch.Next()
	w.Lw(r, off, "sp", ctx.scratch.Next())
	return r
}

func paramIndex(f *ir.Func, p *ir.Param) int {
	for i, fp := range f.Params {
		if fp == p {
			return i
		}
	}
	return -1
}
