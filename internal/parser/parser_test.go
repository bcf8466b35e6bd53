package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysyc/internal/ast"
	"sysyc/internal/lexer"
)

func parseSource(t *testing.T, src string) (prog *ast.Program, err error) {
	t.Helper()
	tokens := lexer.NewScanner(src, "test.sy").ScanTokens()
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	prog = New(tokens, "test.sy").Parse()
	return
}

func TestParseMinimalFunction(t *testing.T) {
	prog, err := parseSource(t, "int main() { return 0; }")
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)

	fd, ok := prog.Items[0].(*ast.FuncDef)
	require.True(t, ok)
	assert.Equal(t, "main", fd.Name)
	assert.Equal(t, ast.FuncInt, fd.Ret)
	assert.Empty(t, fd.Params)
}

func TestParseVoidFunctionWithParams(t *testing.T) {
	prog, err := parseSource(t, "void f(int a, int b[]) { }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	assert.Equal(t, ast.FuncVoid, fd.Ret)
	require.Len(t, fd.Params, 2)
	assert.False(t, fd.Params[0].IsArray)
	assert.True(t, fd.Params[1].IsArray)
}

func TestOperatorPrecedenceMulBindsTighterThanAdd(t *testing.T) {
	prog, err := parseSource(t, "int main() { return 1 + 2 * 3; }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	ret := fd.Body.Items[0].(*ast.ReturnStmt)

	top, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, top.Op)

	rhs, ok := top.R.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rhs.Op)
}

func TestRelationalBindsLooserThanAdditive(t *testing.T) {
	prog, err := parseSource(t, "int main() { return 1 + 1 < 2 + 2; }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	ret := fd.Body.Items[0].(*ast.ReturnStmt)

	top, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpLt, top.Op)
	_, lhsIsAdd := top.L.(*ast.Binary)
	_, rhsIsAdd := top.R.(*ast.Binary)
	assert.True(t, lhsIsAdd)
	assert.True(t, rhsIsAdd)
}

func TestLogicalAndBindsTighterThanOr(t *testing.T) {
	prog, err := parseSource(t, "int main() { return 1 || 0 && 1; }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	ret := fd.Body.Items[0].(*ast.ReturnStmt)

	top, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpLOr, top.Op)

	rhs, ok := top.R.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.OpLAnd, rhs.Op)
}

func TestArrayDeclarationDims(t *testing.T) {
	prog, err := parseSource(t, "int main() { int a[2][3]; return 0; }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	decl := fd.Body.Items[0].(*ast.VarDecl)
	require.Len(t, decl.Defs, 1)
	assert.Len(t, decl.Defs[0].Dims, 2)
}

func TestNestedInitializerList(t *testing.T) {
	prog, err := parseSource(t, "int a[2][2] = {{1, 2}, {3, 4}};")
	require.NoError(t, err)
	decl := prog.Items[0].(*ast.VarDecl)
	init := decl.Defs[0].Init
	require.True(t, init.IsList())
	require.Len(t, init.List, 2)
	assert.True(t, init.List[0].IsList())
}

func TestMissingSemicolonIsASyntaxError(t *testing.T) {
	_, err := parseSource(t, "int main() { return 0 }")
	assert.Error(t, err)
}

func TestIfWithoutElse(t *testing.T) {
	prog, err := parseSource(t, "int main() { if (1) return 1; return 0; }")
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	ifStmt := fd.Body.Items[0].(*ast.IfStmt)
	assert.Nil(t, ifStmt.Else)
}

func TestWhileBreakContinue(t *testing.T) {
	prog, err := parseSource(t, `
		int main() {
			while (1) {
				break;
				continue;
			}
			return 0;
		}
	`)
	require.NoError(t, err)
	fd := prog.Items[0].(*ast.FuncDef)
	whileStmt := fd.Body.Items[0].(*ast.WhileStmt)
	body := whileStmt.Body.(*ast.BlockStmt)
	require.Len(t, body.Block.Items, 2)
	_, isBreak := body.Block.Items[0].(*ast.BreakStmt)
	_, isContinue := body.Block.Items[1].(*ast.ContinueStmt)
	assert.True(t, isBreak)
	assert.True(t, isContinue)
}
