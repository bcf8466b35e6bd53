// Package riscv writes textual RV32IM assembly and hides the two
// bit-width concerns the ISA enforces that the backend's instruction
// selection otherwise would have to think about: 12-bit immediate
// legalization and long-branch expansion (spec.md §4.6). Grounded on
// _examples/original_source/lv9's `Riscv` emitter class
// (`_addi`/`_lw`/`_sw`/`_bnez`/`_beqz`), ported from direct-to-stdout
// `printf` calls to a buffered `io.Writer`.
package riscv

import (
	"bufio"
	"fmt"
	"io"
)

// scratchRegs is the tiny register pool spec.md §4.5.3 describes:
// re-issued per instruction since every computed value is already
// pushed to memory by the frontend, so only one IR instruction's worth
// of scratch registers need to be live at once.
var scratchRegs = []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}

// ScratchPool hands out the next free scratch register, reset at the
// start of every instruction's emission.
type ScratchPool struct{ idx int }

func (p *ScratchPool) Reset() { p.idx = 0 }

func (p *ScratchPool) Next() string {
	r := scratchRegs[p.idx%len(scratchRegs)]
	p.idx++
	return r
}

// Writer emits RV32IM assembly text.
type Writer struct {
	w   *bufio.Writer
	out io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), out: w}
}

func (w *Writer) Flush() error { return w.w.Flush() }

func (w *Writer) Raw(format string, args ...interface{}) {
	fmt.Fprintf(w.w, format, args...)
}

func (w *Writer) DataSection() { fmt.Fprintln(w.w, "  .data") }
func (w *Writer) TextSection() { fmt.Fprintln(w.w, "  .text") }
func (w *Writer) Globl(name string) { fmt.Fprintf(w.w, "  .globl %s\n", name) }
func (w *Writer) Label(name string) { fmt.Fprintf(w.w, "%s:\n", name) }
func (w *Writer) Word(v int32) { fmt.Fprintf(w.w, "  .word %d\n", v) }
func (w *Writer) Zero(n int) { fmt.Fprintf(w.w, "  .zero %d\n", n) }

func (w *Writer) Li(rd string, imm int64) { fmt.Fprintf(w.w, "  li %s, %d\n", rd, imm) }
func (w *Writer) Mv(rd, rs string)        { fmt.Fprintf(w.w, "  mv %s, %s\n", rd, rs) }
func (w *Writer) La(rd, sym string)       { fmt.Fprintf(w.w, "  la %s, %s\n", rd, sym) }
func (w *Writer) Ret()                    { fmt.Fprintln(w.w, "  ret") }
func (w *Writer) Call(name string)        { fmt.Fprintf(w.w, "  call %s\n", name) }
func (w *Writer) J(label string)          { fmt.Fprintf(w.w, "  j %s\n", label) }

func (w *Writer) Add(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  add %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Sub(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  sub %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Mul(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  mul %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Div(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  div %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Rem(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  rem %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Xor(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  xor %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Slt(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  slt %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Sgt(rd, rs1, rs2 string) { fmt.Fprintf(w.w, "  sgt %s, %s, %s\n", rd, rs1, rs2) }
func (w *Writer) Seqz(rd, rs string)      { fmt.Fprintf(w.w, "  seqz %s, %s\n", rd, rs) }
func (w *Writer) Snez(rd, rs string)      { fmt.Fprintf(w.w, "  snez %s, %s\n", rd, rs) }
func (w *Writer) Sll(rd, rs, shamt string) { fmt.Fprintf(w.w, "  sll %s, %s, %s\n", rd, rs, shamt) }
