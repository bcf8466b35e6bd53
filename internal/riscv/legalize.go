package riscv

import (
	"fmt"
	"math/bits"
)

// immLo, immHi are the signed 12-bit range `addi`/`lw`/`sw` encode
// directly (spec.md §4.6).
const (
	immLo = -2048
	immHi = 2047
)

// fitsImm12 reports whether an offset needs no legalization.
func fitsImm12(v int) bool { return v >= immLo && v <= immHi }

// Addi legalizes `addi rd, rs, imm`: out-of-range immediates are
// materialized into a scratch register and added in register-register
// form.
func (w *Writer) Addi(rd, rs string, imm int, scratch string) {
	if fitsImm12(imm) {
		fmt.Fprintf(w.w, "  addi %s, %s, %d\n", rd, rs, imm)
		return
	}
	w.Li(scratch, int64(imm))
	w.Add(rd, rs, scratch)
}

// Lw legalizes `lw rd, offset(base)`.
func (w *Writer) Lw(rd string, offset int, base, scratch string) {
	if fitsImm12(offset) {
		fmt.Fprintf(w.w, "  lw %s, %d(%s)\n", rd, offset, base)
		return
	}
	w.Li(scratch, int64(offset))
	w.Add(scratch, base, scratch)
	fmt.Fprintf(w.w, "  lw %s, 0(%s)\n", rd, scratch)
}

// Sw legalizes `sw rs, offset(base)`.
func (w *Writer) Sw(rs string, offset int, base, scratch string) {
	if fitsImm12(offset) {
		fmt.Fprintf(w.w, "  sw %s, %d(%s)\n", rs, offset, base)
		return
	}
	w.Li(scratch, int64(offset))
	w.Add(scratch, base, scratch)
	fmt.Fprintf(w.w, "  sw %s, 0(%s)\n", rs, scratch)
}

// CondBranchTrampoline always expands a conditional branch into the
// four-instruction form of spec.md §4.6: `bnez`/`beqz` only have a
// ±4 KiB reach, so rather than track distance the emitter
// unconditionally routes through a local trampoline label, slightly
// larger but always correct.
func (w *Writer) CondBranchTrampoline(bnez bool, condReg, trueLabel string, id int) {
	branchLabel := fmt.Sprintf("branch%d", id)
	endLabel := fmt.Sprintf("branch%d_end", id)
	if bnez {
		fmt.Fprintf(w.w, "  bnez %s, %s\n", condReg, branchLabel)
	} else {
		fmt.Fprintf(w.w, "  beqz %s, %s\n", condReg, branchLabel)
	}
	w.J(endLabel)
	w.Label(branchLabel)
	w.J(trueLabel)
	w.Label(endLabel)
}

// IsPowerOfTwo returns log2(x) if x is a strictly positive power of
// two, else -1 — confirmed against original_source/lv9's
// backend_utils.cpp: only strictly positive powers of two
// strength-reduce, and size 1 (2^0) is handled by the caller skipping
// the multiply entirely rather than emitting a no-op shift (SPEC_FULL
// §4.7).
func IsPowerOfTwo(x int) int {
	if x <= 0 || x&(x-1) != 0 {
		return -1
	}
	return bits.TrailingZeros(uint(x))
}
