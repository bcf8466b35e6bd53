package backend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysyc/internal/frontend"
	"sysyc/internal/lexer"
	"sysyc/internal/parser"
)

// compile runs the full source-to-assembly pipeline: lex, parse, lower
// to the IR object graph, serialize it, re-parse it through the IR
// parser library, then codegen — the exact round-trip spec.md §6's
// `-riscv` mode performs.
func compile(t *testing.T, src string) string {
	t.Helper()
	scanner := lexer.NewScanner(src, "test.sy")
	tokens := scanner.ScanTokens()
	p := parser.New(tokens, "test.sy")
	prog := p.Parse()

	mod, _, err := frontend.Lower(prog, "test.sy")
	require.NoError(t, err)

	reparsed, err := asm.ParseString("test.sy", mod.String())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Compile(reparsed, &buf))
	return buf.String()
}

func TestCompileEmitsFunctionLabel(t *testing.T) {
	out := compile(t, "int main() { return 0; }")
	assert.Contains(t, out, "main:")
	assert.Contains(t, out, "  ret\n")
}

func TestCompileEmitsGlobalDataBeforeText(t *testing.T) {
	out := compile(t, `
		int counter = 41;
		int main() { return counter + 1; }
	`)
	dataIdx := strings.Index(out, ".data")
	textIdx := strings.Index(out, ".text")
	require.GreaterOrEqual(t, dataIdx, 0)
	require.GreaterOrEqual(t, textIdx, 0)
	assert.Less(t, dataIdx, textIdx, ".data must precede .text")
}

func TestLargeLocalArrayForcesLegalizedOffsets(t *testing.T) {
	// A 1500-int array pushes the frame comfortably past the 12-bit
	// signed immediate range (2047), forcing the legalizer's
	// li+add fallback path in Addi/Lw/Sw.
	out := compile(t, `
		int main() {
			int buf[1500];
			buf[0] = 1;
			buf[1499] = 2;
			return buf[0] + buf[1499];
		}
	`)
	assert.Contains(t, out, "li t", "an offset beyond +-2047 must be materialized via li")
}

func TestStarttimeStoptimeLowerToBareCalls(t *testing.T) {
	out := compile(t, `
		int main() {
			starttime();
			stoptime();
			return 0;
		}
	`)
	assert.Contains(t, out, "call starttime")
	assert.Contains(t, out, "call stoptime")
}

func TestBranchesAlwaysUseTrampoline(t *testing.T) {
	out := compile(t, `
		int main() {
			int x;
			x = 1;
			if (x == 1) {
				x = 2;
			} else {
				x = 3;
			}
			return x;
		}
	`)
	assert.Contains(t, out, "bnez")
	assert.Contains(t, out, "branch")
}

func TestFunctionCallArgumentsAboveEightSpillToStack(t *testing.T) {
	out := compile(t, `
		int sum9(int a, int b, int c, int d, int e, int f, int g, int h, int i) {
			return a + b + c + d + e + f + g + h + i;
		}
		int main() {
			return sum9(1, 2, 3, 4, 5, 6, 7, 8, 9);
		}
	`)
	assert.Contains(t, out, "call sum9")
	// The 9th argument (index 8) cannot fit in a0-a7 and must be
	// written to the caller's outgoing-argument stack region.
	assert.Contains(t, out, "sw ")
}
