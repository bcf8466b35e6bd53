package ast

import (
	"fmt"
	"strings"
)

// Dump renders prog as an indented tree, the AST dump spec.md §6's
// `-debug` mode requires. Grounded on the teacher's parser's own
// `String()` conventions (internal/parser/ast.go's Stmt/Expr variants
// each print themselves) rather than a generic reflection walk.
func Dump(prog *Program) string {
	var b strings.Builder
	for _, item := range prog.Items {
		dumpNode(&b, item, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func dumpNode(b *strings.Builder, n Node, depth int) {
	switch v := n.(type) {
	case *FuncDef:
		indent(b, depth)
		fmt.Fprintf(b, "FuncDef %s(%d params)\n", v.Name, len(v.Params))
		dumpNode(b, v.Body, depth+1)
	case *ConstDecl:
		indent(b, depth)
		fmt.Fprintf(b, "ConstDecl (%d defs)\n", len(v.Defs))
	case *VarDecl:
		indent(b, depth)
		fmt.Fprintf(b, "VarDecl (%d defs)\n", len(v.Defs))
	case *Block:
		indent(b, depth)
		fmt.Fprintf(b, "Block (%d items)\n", len(v.Items))
		for _, item := range v.Items {
			dumpNode(b, item, depth+1)
		}
	case Stmt:
		dumpStmt(b, v, depth)
	default:
		indent(b, depth)
		fmt.Fprintf(b, "%T\n", n)
	}
}

func dumpStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch v := s.(type) {
	case *AssignStmt:
		fmt.Fprintf(b, "Assign %s\n", v.LVal.Name)
	case *ExprStmt:
		b.WriteString("ExprStmt\n")
	case *BlockStmt:
		b.WriteString("BlockStmt\n")
		dumpNode(b, v.Block, depth+1)
	case *IfStmt:
		hasElse := v.Else != nil
		fmt.Fprintf(b, "If (else=%v)\n", hasElse)
		dumpNode(b, v.Then, depth+1)
		if hasElse {
			dumpNode(b, v.Else, depth+1)
		}
	case *WhileStmt:
		b.WriteString("While\n")
		dumpNode(b, v.Body, depth+1)
	case *BreakStmt:
		b.WriteString("Break\n")
	case *ContinueStmt:
		b.WriteString("Continue\n")
	case *ReturnStmt:
		fmt.Fprintf(b, "Return (value=%v)\n", v.Value != nil)
	default:
		fmt.Fprintf(b, "%T\n", s)
	}
}
