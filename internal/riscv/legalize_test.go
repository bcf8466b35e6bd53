package riscv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestWriter() (*Writer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWriter(&buf), &buf
}

func TestAddiInRangeEmitsDirectly(t *testing.T) {
	w, buf := newTestWriter()
	w.Addi("t0", "sp", 2000, "t1")
	w.Flush()
	assert.Equal(t, "  addi t0, sp, 2000\n", buf.String())
}

func TestAddiOutOfRangeMaterializesScratch(t *testing.T) {
	w, buf := newTestWriter()
	w.Addi("t0", "sp", 5000, "t1")
	w.Flush()
	assert.Equal(t, "  li t1, 5000\n  add t0, sp, t1\n", buf.String())
}

func TestAddiBoundaryValues(t *testing.T) {
	w, buf := newTestWriter()
	w.Addi("t0", "sp", immHi, "t1")
	w.Addi("t0", "sp", immLo, "t1")
	w.Addi("t0", "sp", immHi+1, "t1")
	w.Addi("t0", "sp", immLo-1, "t1")
	w.Flush()
	out := buf.String()
	assert.Contains(t, out, "addi t0, sp, 2047\n")
	assert.Contains(t, out, "addi t0, sp, -2048\n")
	assert.Contains(t, out, "li t1, 2048\n")
	assert.Contains(t, out, "li t1, -2049\n")
}

func TestLwOutOfRangeLegalizes(t *testing.T) {
	w, buf := newTestWriter()
	w.Lw("t0", 9000, "sp", "t1")
	w.Flush()
	assert.Equal(t, "  li t1, 9000\n  add t1, sp, t1\n  lw t0, 0(t1)\n", buf.String())
}

func TestSwInRangeEmitsDirectly(t *testing.T) {
	w, buf := newTestWriter()
	w.Sw("a0", -16, "sp", "t0")
	w.Flush()
	assert.Equal(t, "  sw a0, -16(sp)\n", buf.String())
}

func TestCondBranchTrampolineAlwaysExpands(t *testing.T) {
	w, buf := newTestWriter()
	w.CondBranchTrampoline(true, "t0", "then_0", 3)
	w.Flush()
	expected := "  bnez t0, branch3\n" +
		"  j branch3_end\n" +
		"branch3:\n" +
		"  j then_0\n" +
		"branch3_end:\n"
	assert.Equal(t, expected, buf.String())
}

func TestCondBranchTrampolineBeqz(t *testing.T) {
	w, buf := newTestWriter()
	w.CondBranchTrampoline(false, "t0", "else_1", 5)
	w.Flush()
	assert.Contains(t, buf.String(), "beqz t0, branch5\n")
}

func TestIsPowerOfTwo(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{1, 0},
		{2, 1},
		{4, 2},
		{8, 3},
		{1024, 10},
		{0, -1},
		{-4, -1},
		{3, -1},
		{5, -1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsPowerOfTwo(c.in), "IsPowerOfTwo(%d)", c.in)
	}
}
