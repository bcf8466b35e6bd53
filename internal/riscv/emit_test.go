package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScratchPoolCyclesAndResets(t *testing.T) {
	var p ScratchPool
	first := p.Next()
	assert.Equal(t, "t0", first)
	assert.Equal(t, "t1", p.Next())

	p.Reset()
	assert.Equal(t, "t0", p.Next())
}

func TestScratchPoolWrapsAfterSeven(t *testing.T) {
	var p ScratchPool
	for i := 0; i < len(scratchRegs); i++ {
		p.Next()
	}
	assert.Equal(t, "t0", p.Next())
}

func TestBasicEmitters(t *testing.T) {
	w, buf := newTestWriter()
	w.Globl("main")
	w.Label("main")
	w.Li("a0", 0)
	w.Call("putint")
	w.Ret()
	w.Flush()

	out := buf.String()
	assert.Contains(t, out, "  .globl main\n")
	assert.Contains(t, out, "main:\n")
	assert.Contains(t, out, "  li a0, 0\n")
	assert.Contains(t, out, "  call putint\n")
	assert.Contains(t, out, "  ret\n")
}

func TestDataSectionHelpers(t *testing.T) {
	w, buf := newTestWriter()
	w.DataSection()
	w.Globl("counter")
	w.Label("counter")
	w.Word(42)
	w.Zero(12)
	w.Flush()

	out := buf.String()
	assert.Contains(t, out, "  .data\n")
	assert.Contains(t, out, "  .word 42\n")
	assert.Contains(t, out, "  .zero 12\n")
}
